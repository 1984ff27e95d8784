package reference

import "strings"

// ContigOrder ranks contig names. Index returns -1 for unknown contigs.
type ContigOrder interface {
	Index(name string) int
}

// Order is a ContigOrder built from a list of names.
type Order struct {
	index map[string]int
	names []string
}

// NewOrder ranks names in the given order. Repeated names keep their first rank.
func NewOrder(names []string) *Order {
	o := &Order{index: make(map[string]int, len(names))}
	for _, n := range names {
		if _, ok := o.index[n]; ok {
			continue
		}
		o.index[n] = len(o.names)
		o.names = append(o.names, n)
	}
	return o
}

// Index implements ContigOrder.
func (o *Order) Index(name string) int {
	if i, ok := o.index[name]; ok {
		return i
	}
	return -1
}

// Names returns the known contigs in rank order.
func (o *Order) Names() []string { return o.names }

// Compare orders two contigs under ord: known contigs by rank, then unknown
// contigs by name. A nil ord treats every contig as unknown.
func Compare(ord ContigOrder, a, b string) int {
	ia, ib := -1, -1
	if ord != nil {
		ia, ib = ord.Index(a), ord.Index(b)
	}
	switch {
	case ia >= 0 && ib >= 0:
		return ia - ib
	case ia >= 0:
		return -1
	case ib >= 0:
		return 1
	}
	return strings.Compare(a, b)
}

// Compare orders two contigs; see the package-level Compare.
func (o *Order) Compare(a, b string) int { return Compare(o, a, b) }
