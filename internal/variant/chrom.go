package variant

import (
	"fmt"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/inodb/vibe-bench/internal/vcf"
)

// ChromVariants holds the variants of one callset on one chromosome, at most
// one per position. Positions are kept sorted for range queries.
type ChromVariants struct {
	chrom string
	opts  Options

	locations []int64            // all positions, ascending
	all       map[int64]*Variant // position -> variant
	byType    [NumTypes][]int64  // per-type positions, ascending

	// Bucketed views: SNPs, indels and SVs are stored apart.
	snps, indels, svs map[int64]*Variant

	logger *zap.Logger
}

// NewChromVariants creates an empty collection for chrom.
func NewChromVariants(chrom string, opts Options) *ChromVariants {
	return &ChromVariants{
		chrom:  chrom,
		opts:   opts,
		all:    make(map[int64]*Variant),
		snps:   make(map[int64]*Variant),
		indels: make(map[int64]*Variant),
		svs:    make(map[int64]*Variant),
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger used for dropped duplicates.
func (c *ChromVariants) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Chrom returns the chromosome name.
func (c *ChromVariants) Chrom() string { return c.chrom }

// Options returns the options the collection was created with.
func (c *ChromVariants) Options() Options { return c.opts }

// Add parses a record and inserts it. Records failing the filter are
// skipped silently; contract violations are returned as *ContractError.
func (c *ChromVariants) Add(rec *vcf.Variant) error {
	if rec.Chrom != c.chrom {
		return fmt.Errorf("record on %s added to %s collection", rec.Chrom, c.chrom)
	}
	if !rec.IsPass() && !c.opts.KnownFP {
		return nil
	}
	v, err := FromRecord(rec, c.opts)
	if err != nil {
		return err
	}
	c.Insert(v)
	return nil
}

// Insert adds v unless its position is already occupied, in which case the
// new variant is logged and dropped. It reports whether v was inserted.
func (c *ChromVariants) Insert(v *Variant) bool {
	if old, ok := c.all[v.Pos]; ok {
		c.logger.Warn("variant excluded: position already occupied",
			zap.String("chrom", c.chrom),
			zap.Int64("pos", v.Pos),
			zap.String("kept", old.String()),
			zap.String("dropped", v.String()))
		return false
	}
	c.all[v.Pos] = v
	c.bucket(v.Type)[v.Pos] = v
	c.locations = insertSorted(c.locations, v.Pos)
	c.byType[v.Type] = insertSorted(c.byType[v.Type], v.Pos)
	return true
}

// Remove deletes and returns the variant at pos.
func (c *ChromVariants) Remove(pos int64) (*Variant, bool) {
	v, ok := c.all[pos]
	if !ok {
		return nil, false
	}
	delete(c.all, pos)
	delete(c.bucket(v.Type), pos)
	c.locations = deleteSorted(c.locations, pos)
	c.byType[v.Type] = deleteSorted(c.byType[v.Type], pos)
	return v, true
}

func (c *ChromVariants) bucket(t Type) map[int64]*Variant {
	switch {
	case t == SNP:
		return c.snps
	case t.IsSV():
		return c.svs
	}
	return c.indels
}

// At returns the variant at pos, whatever its type.
func (c *ChromVariants) At(pos int64) (*Variant, bool) {
	v, ok := c.all[pos]
	return v, ok
}

// VariantAt returns the variant of type t at pos.
func (c *ChromVariants) VariantAt(t Type, pos int64) (*Variant, bool) {
	v, ok := c.bucket(t)[pos]
	if !ok || v.Type != t {
		return nil, false
	}
	return v, true
}

// Has reports whether pos is occupied.
func (c *ChromVariants) Has(pos int64) bool {
	_, ok := c.all[pos]
	return ok
}

// Locations returns all positions in ascending order. The slice must not be modified.
func (c *ChromVariants) Locations() []int64 { return c.locations }

// LocationsOfType returns the positions of type t in ascending order.
func (c *ChromVariants) LocationsOfType(t Type) []int64 { return c.byType[t] }

// Len returns the number of variants.
func (c *ChromVariants) Len() int { return len(c.locations) }

// NumOfType returns the number of variants of type t.
func (c *ChromVariants) NumOfType(t Type) int { return len(c.byType[t]) }

// Variants returns all variants in position order.
func (c *ChromVariants) Variants() []*Variant {
	out := make([]*Variant, len(c.locations))
	for i, p := range c.locations {
		out[i] = c.all[p]
	}
	return out
}

// RangeQuery returns positions in [min, max).
func (c *ChromVariants) RangeQuery(min, max int64) []int64 {
	return extractRange(c.locations, min, max)
}

// RangeQueryOfType returns positions of type t in [min, max).
func (c *ChromVariants) RangeQueryOfType(t Type, min, max int64) []int64 {
	return extractRange(c.byType[t], min, max)
}

// LastAtOrBefore returns the index in Locations of the rightmost position
// <= pos, or -1.
func (c *ChromVariants) LastAtOrBefore(pos int64) int {
	return sort.Search(len(c.locations), func(i int) bool { return c.locations[i] > pos }) - 1
}

// Clone returns an independent deep copy.
func (c *ChromVariants) Clone() *ChromVariants {
	n := NewChromVariants(c.chrom, c.opts)
	n.logger = c.logger
	n.locations = slices.Clone(c.locations)
	for t := range c.byType {
		n.byType[t] = slices.Clone(c.byType[t])
	}
	for p, v := range c.all {
		cv := v.Clone()
		n.all[p] = cv
		n.bucket(cv.Type)[p] = cv
	}
	return n
}

// Subset returns a deep copy restricted to the given positions.
func (c *ChromVariants) Subset(keep map[int64]bool) *ChromVariants {
	n := NewChromVariants(c.chrom, c.opts)
	n.logger = c.logger
	for _, p := range c.locations {
		if keep[p] {
			n.Insert(c.all[p].Clone())
		}
	}
	return n
}

// Validate checks that the position index and the variant map agree.
func (c *ChromVariants) Validate() error {
	if len(c.locations) != len(c.all) {
		return fmt.Errorf("%s: %d positions indexed but %d variants stored",
			c.chrom, len(c.locations), len(c.all))
	}
	n := 0
	for t := range c.byType {
		n += len(c.byType[t])
	}
	if n != len(c.all) || len(c.snps)+len(c.indels)+len(c.svs) != len(c.all) {
		return fmt.Errorf("%s: type index holds %d positions for %d variants", c.chrom, n, len(c.all))
	}
	for i, p := range c.locations {
		if _, ok := c.all[p]; !ok {
			return fmt.Errorf("%s: indexed position %d has no variant", c.chrom, p)
		}
		if i > 0 && c.locations[i-1] >= p {
			return fmt.Errorf("%s: position index not strictly ascending at %d", c.chrom, p)
		}
	}
	return nil
}

// extractRange copies the values of a sorted slice that lie in [min, max).
func extractRange(locs []int64, min, max int64) []int64 {
	lo := sort.Search(len(locs), func(i int) bool { return locs[i] >= min })
	hi := sort.Search(len(locs), func(i int) bool { return locs[i] >= max })
	if hi < lo {
		hi = lo
	}
	return slices.Clone(locs[lo:hi])
}

func insertSorted(s []int64, v int64) []int64 {
	if n := len(s); n == 0 || s[n-1] < v {
		return append(s, v)
	}
	i := sort.Search(len(s), func(i int) bool { return s[i] >= v })
	return slices.Insert(s, i, v)
}

func deleteSorted(s []int64, v int64) []int64 {
	i := sort.Search(len(s), func(i int) bool { return s[i] >= v })
	if i < len(s) && s[i] == v {
		return slices.Delete(s, i, i+1)
	}
	return s
}
