package eval

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/inodb/vibe-bench/internal/reference"
	"github.com/inodb/vibe-bench/internal/variant"
)

// ReferenceMismatchError reports a variant whose ref allele disagrees with
// the reference. Only the rescue attempt that hit it is abandoned.
type ReferenceMismatchError struct {
	Chrom    string
	Pos      int64
	Ref      string
	Observed string
}

func (e *ReferenceMismatchError) Error() string {
	return fmt.Sprintf("variant ref does not match reference at %s %d: %s != %s", e.Chrom, e.Pos, e.Ref, e.Observed)
}

// InvariantError is a broken window or queue invariant found while
// splicing. It carries a stack and aborts the run.
type InvariantError struct {
	Window Window
	Locus  int64
	Truth  [][]*variant.Variant
	Pred   [][]*variant.Variant
	err    error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("rescue of %s:%d in window %s: %v; truth queues %s; predicted queues %s",
		e.Window.Chrom, e.Locus, e.Window, e.err, formatQueues(e.Truth), formatQueues(e.Pred))
}

// Unwrap returns the underlying error, which carries the stack trace.
func (e *InvariantError) Unwrap() error { return e.err }

func formatQueues(qs [][]*variant.Variant) string {
	parts := make([]string, len(qs))
	for i, q := range qs {
		vs := make([]string, len(q))
		for j, v := range q {
			vs[j] = v.String()
		}
		parts[i] = "[" + strings.Join(vs, "; ") + "]"
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// errOffset is raised inside Haplotypes and wrapped into an InvariantError
// by the rescuer, which knows the queues.
type errOffset struct{ error }

// Haplotypes splices the first alt of each variant into the reference bases
// of w. Variants must be sorted and non-overlapping. Without genotype
// awareness every variant goes to hom and het is empty; otherwise het calls
// are spliced into a separate het sequence.
func Haplotypes(ref reference.Reference, w Window, vs []*variant.Variant, genotypeAware bool) (hom, het string, err error) {
	var homB, hetB strings.Builder
	homOff, hetOff := w.Low, w.Low

	bases := func(start, end int64) (string, error) {
		return ref.Ref(w.Chrom, start-1, end-1)
	}
	splice := func(b *strings.Builder, from int64, v *variant.Variant) error {
		s, err := bases(from, v.Pos)
		if err != nil {
			return err
		}
		b.WriteString(s)
		if len(v.Alts) > 0 {
			b.WriteString(v.Alts[0])
		}
		return nil
	}

	for _, v := range vs {
		observed, err := bases(v.Pos, v.End())
		if err != nil {
			return "", "", err
		}
		if observed != v.Ref {
			return "", "", &ReferenceMismatchError{Chrom: w.Chrom, Pos: v.Pos, Ref: v.Ref, Observed: observed}
		}
		if homOff > v.Pos || hetOff > v.Pos {
			return "", "", errOffset{errors.Errorf("variant %s starts before splice offset %d", v, max(homOff, hetOff))}
		}
		if v.Genotype == variant.HomRef || v.Genotype == variant.NoCall {
			return "", "", errOffset{errors.Errorf("variant %s has non-variant genotype", v)}
		}

		if !genotypeAware || v.Genotype == variant.HomVar {
			if err := splice(&homB, homOff, v); err != nil {
				return "", "", err
			}
			homOff = v.End()
		} else {
			if err := splice(&hetB, hetOff, v); err != nil {
				return "", "", err
			}
			hetOff = v.End()
		}
		if homOff > w.High || hetOff > w.High {
			return "", "", errOffset{errors.Errorf("variant %s runs past window end %d", v, w.High)}
		}
	}

	if genotypeAware {
		s, err := bases(hetOff, w.High)
		if err != nil {
			return "", "", err
		}
		hetB.WriteString(s)
	}
	s, err := bases(homOff, w.High)
	if err != nil {
		return "", "", err
	}
	homB.WriteString(s)
	return homB.String(), hetB.String(), nil
}
