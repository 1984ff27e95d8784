package eval

import "github.com/inodb/vibe-bench/internal/variant"

// Default structural tolerances.
const (
	DefaultEpsBp  = 100
	DefaultEpsLen = 100
)

func within(x, center, eps int64) bool {
	return center-eps <= x && x <= center+eps
}

// IndelOrSVMatch reports whether pred matches truth under the given
// breakpoint and length tolerances: same type, positions at most epsBp
// apart, and some pair of alt gains at most epsLen apart. Genotype is not
// considered.
func IndelOrSVMatch(truth, pred *variant.Variant, epsBp, epsLen int64) bool {
	if truth.Type != pred.Type || !within(pred.Pos, truth.Pos, epsBp) {
		return false
	}
	for _, tg := range truth.Gains() {
		for _, pg := range pred.Gains() {
			if within(int64(pg), int64(tg), epsLen) {
				return true
			}
		}
	}
	return false
}

// FindStructuralMatch returns the position of the predicted variant of the
// same type closest to truth among those within tolerance. Ties go to the
// smaller position.
func FindStructuralMatch(truth *variant.Variant, pred *variant.ChromVariants, epsBp, epsLen int64) (int64, bool) {
	var (
		best     int64
		bestDist int64 = -1
	)
	for _, p := range pred.RangeQueryOfType(truth.Type, truth.Pos-epsBp, truth.Pos+epsBp+1) {
		pv, _ := pred.VariantAt(truth.Type, p)
		if !IndelOrSVMatch(truth, pv, epsBp, epsLen) {
			continue
		}
		d := p - truth.Pos
		if d < 0 {
			d = -d
		}
		// Candidates come in ascending position order, so strict < keeps
		// the smallest position among equally close ones.
		if bestDist < 0 || d < bestDist {
			best, bestDist = p, d
		}
	}
	return best, bestDist >= 0
}
