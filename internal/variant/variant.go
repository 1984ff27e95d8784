package variant

import (
	"fmt"
	"strings"
)

// Variant is one classified call. Type is fixed at construction.
type Variant struct {
	Pos      int64 // 1-based
	Ref      string
	Alts     []string
	Type     Type
	Genotype Genotype
}

// Gains returns len(alt)-len(ref) for each alt allele.
func (v *Variant) Gains() []int {
	gains := make([]int, len(v.Alts))
	for i, a := range v.Alts {
		gains[i] = len(a) - len(v.Ref)
	}
	return gains
}

// Losses returns max(0, -gain) for each alt allele.
func (v *Variant) Losses() []int {
	losses := v.Gains()
	for i, g := range losses {
		if g < 0 {
			losses[i] = -g
		} else {
			losses[i] = 0
		}
	}
	return losses
}

// MaxLoss returns the largest loss over all alt alleles.
func (v *Variant) MaxLoss() int {
	m := 0
	for _, l := range v.Losses() {
		if l > m {
			m = l
		}
	}
	return m
}

// End returns the first position after the reference span.
func (v *Variant) End() int64 {
	return v.Pos + int64(len(v.Ref))
}

// Overlaps reports whether pos lies in [Pos, End]. The upper bound is
// inclusive so a bound sitting right after the span still counts as touching.
func (v *Variant) Overlaps(pos int64) bool {
	return v.Pos <= pos && pos <= v.End()
}

// StrictlyOverlaps reports whether pos lies in [Pos, End).
func (v *Variant) StrictlyOverlaps(pos int64) bool {
	return v.Pos <= pos && pos < v.End()
}

// OverlapsAllele reports whether pos falls in the reference bases some alt
// allele actually deletes, that is [Pos, Pos+loss] for any loss.
func (v *Variant) OverlapsAllele(pos int64) bool {
	if pos < v.Pos {
		return false
	}
	for _, l := range v.Losses() {
		if pos <= v.Pos+int64(l) {
			return true
		}
	}
	return false
}

// StrictlyOverlapsVariant reports whether the reference spans of v and o intersect.
func (v *Variant) StrictlyOverlapsVariant(o *Variant) bool {
	return v.Pos < o.End() && o.Pos < v.End()
}

// AltSetEqual reports whether v and o carry the same set of alt alleles.
func (v *Variant) AltSetEqual(o *Variant) bool {
	a := make(map[string]bool, len(v.Alts))
	for _, s := range v.Alts {
		a[s] = true
	}
	b := make(map[string]bool, len(o.Alts))
	for _, s := range o.Alts {
		if !a[s] {
			return false
		}
		b[s] = true
	}
	return len(a) == len(b)
}

// AltString returns the alt alleles comma-joined, "." when there are none.
func (v *Variant) AltString() string {
	if len(v.Alts) == 0 {
		return "."
	}
	return strings.Join(v.Alts, ",")
}

func (v *Variant) String() string {
	return fmt.Sprintf("%d %s/%s %s %s", v.Pos, v.Ref, v.AltString(), v.Type, v.Genotype)
}

// Clone returns a deep copy.
func (v *Variant) Clone() *Variant {
	c := *v
	c.Alts = append([]string(nil), v.Alts...)
	return &c
}
