package eval

import (
	"container/heap"
	"fmt"

	"github.com/inodb/vibe-bench/internal/variant"
)

// INFO values marking each class in the annotated VCF.
const (
	InfoTP      = "source_file=1;smash_type=TP"
	InfoFP      = "source_file=2;smash_type=FP"
	InfoFN      = "source_file=1;smash_type=FN"
	InfoRescued = "source_file=2;smash_type=rescued"
	InfoKnownFP = "err_type=FP_known"
)

// AnnotatedLine is one body line of the annotated VCF.
type AnnotatedLine struct {
	Pos  int64
	Text string
}

type track struct {
	info string
	vs   []*variant.Variant
}

// Annotated returns the classified variants of the chromosome as VCF body
// lines ordered by position. Lines at the same position keep the order TP,
// FP, FN, known FP, rescued.
func (r *ChromResult) Annotated() []AnnotatedLine {
	tracks := []track{
		{InfoTP, variantsOf(r.TruePositives)},
		{InfoFP, variantsOf(r.FalsePositives)},
		{InfoFN, variantsOf(r.FalseNegatives)},
		{InfoKnownFP, variantsOf(r.KnownFPCalls)},
		{InfoRescued, variantsOf(r.Rescued)},
	}

	h := &cursorHeap{tracks: tracks}
	total := 0
	for i, t := range tracks {
		total += len(t.vs)
		if len(t.vs) > 0 {
			h.items = append(h.items, cursor{track: i})
		}
	}
	heap.Init(h)

	out := make([]AnnotatedLine, 0, total)
	for h.Len() > 0 {
		c := &h.items[0]
		t := tracks[c.track]
		v := t.vs[c.next]
		out = append(out, AnnotatedLine{Pos: v.Pos, Text: formatLine(r.Chrom, v, t.info)})
		c.next++
		if c.next == len(t.vs) {
			heap.Pop(h)
		} else {
			heap.Fix(h, 0)
		}
	}
	return out
}

func variantsOf(c *variant.ChromVariants) []*variant.Variant {
	if c == nil {
		return nil
	}
	return c.Variants()
}

func formatLine(chrom string, v *variant.Variant, info string) string {
	return fmt.Sprintf("%s\t%d\t.\t%s\t%s\t.\t.\t%s", chrom, v.Pos, v.Ref, v.AltString(), info)
}

type cursor struct {
	track int
	next  int
}

// cursorHeap orders track cursors by the position of their next variant.
type cursorHeap struct {
	items  []cursor
	tracks []track
}

func (h *cursorHeap) pos(i int) int64 {
	c := h.items[i]
	return h.tracks[c.track].vs[c.next].Pos
}

func (h *cursorHeap) Len() int { return len(h.items) }
func (h *cursorHeap) Less(i, j int) bool {
	pi, pj := h.pos(i), h.pos(j)
	if pi != pj {
		return pi < pj
	}
	return h.items[i].track < h.items[j].track
}
func (h *cursorHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *cursorHeap) Push(x any)    { h.items = append(h.items, x.(cursor)) }
func (h *cursorHeap) Pop() any {
	n := len(h.items)
	c := h.items[n-1]
	h.items = h.items[:n-1]
	return c
}
