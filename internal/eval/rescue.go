package eval

import (
	"slices"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/inodb/vibe-bench/internal/reference"
	"github.com/inodb/vibe-bench/internal/variant"
)

// Rescue defaults.
const (
	DefaultWindow    = 50
	DefaultSizeLimit = 5000
	DefaultMaxQueues = 16
	DefaultLookback  = 50
)

// Rescuer recovers false negatives whose predicted counterpart was written
// differently, by comparing the sequences both sides imply over a window.
type Rescuer struct {
	Ref reference.Reference
	// Window is the half-width of the initial window around the locus.
	Window int64
	// SizeLimit is the widest window still attempted.
	SizeLimit int64
	// MaxQueues bounds truth queues times predicted queues.
	MaxQueues int
	// Lookback is how far behind a bound variants are checked for
	// reaching across it.
	Lookback int64
	// GenotypeAware splices het calls into their own sequence.
	GenotypeAware bool

	logger *zap.Logger
}

// NewRescuer creates a rescuer with default limits.
func NewRescuer(ref reference.Reference, window int64) *Rescuer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Rescuer{
		Ref:       ref,
		Window:    window,
		SizeLimit: DefaultSizeLimit,
		MaxQueues: DefaultMaxQueues,
		Lookback:  DefaultLookback,
		logger:    zap.NewNop(),
	}
}

// SetLogger sets the logger for skipped rescues.
func (r *Rescuer) SetLogger(l *zap.Logger) {
	r.logger = l
}

// RescueResult describes one rescue attempt.
type RescueResult struct {
	Rescued bool
	Window  Window
	// Truth and Pred are the matching queues when Rescued.
	Truth []*variant.Variant
	Pred  []*variant.Variant
}

// Rescue tries to explain the false negative at locus by false positives
// near it. Collections are not modified. A reference mismatch abandons the
// attempt without error; an *InvariantError means the window or queue
// invariants were broken and the run should stop.
func (r *Rescuer) Rescue(locus int64, fn, fp, tp *variant.ChromVariants) (RescueResult, error) {
	var res RescueResult
	v, ok := fn.At(locus)
	if !ok || v.Type.IsSV() {
		return res, nil
	}

	chrom := fn.Chrom()
	res.Window = window(chrom, locus, r.Window, r.Lookback, r.SizeLimit, fn, fp, tp)
	w := res.Window
	if w.Size() > r.SizeLimit {
		r.logger.Debug("rescue skipped: window too large",
			zap.String("chrom", chrom), zap.Int64("pos", locus), zap.Int64("size", w.Size()))
		return res, nil
	}

	truthQ, ok1 := fn.VariantQueues(w.Low, w.High-1, locus, r.MaxQueues)
	predQ, ok2 := fp.VariantQueues(w.Low, w.High-1, locus, r.MaxQueues)
	if !ok1 || !ok2 || len(truthQ) == 0 || len(predQ) == 0 || len(truthQ)*len(predQ) > r.MaxQueues {
		r.logger.Debug("rescue skipped: no candidates or too many combinations",
			zap.String("chrom", chrom), zap.Int64("pos", locus),
			zap.Int("truth_queues", len(truthQ)), zap.Int("pred_queues", len(predQ)))
		return res, nil
	}
	tps := tp.RangeAndFilter(w.Low, w.High-1, locus)

	for _, tq := range truthQ {
		for _, pq := range predQ {
			match, err := r.tryPair(w, tq, pq, tps)
			if err != nil {
				var mismatch *ReferenceMismatchError
				if errors.As(err, &mismatch) {
					r.logger.Warn("rescue abandoned", zap.String("chrom", chrom),
						zap.Int64("pos", locus), zap.Error(err))
					return res, nil
				}
				var off errOffset
				if errors.As(err, &off) {
					return res, &InvariantError{Window: w, Locus: locus, Truth: truthQ, Pred: predQ, err: off.error}
				}
				return res, err
			}
			if match {
				res.Rescued, res.Truth, res.Pred = true, tq, pq
				return res, nil
			}
		}
	}
	return res, nil
}

func (r *Rescuer) tryPair(w Window, tq, pq, tps []*variant.Variant) (bool, error) {
	nonSNP := false
	for _, v := range slices.Concat(tq, pq) {
		if v.Type != variant.SNP {
			nonSNP = true
			break
		}
	}
	if !nonSNP {
		return false, nil
	}

	truthVars, ok := withTruePositives(tq, tps)
	if !ok {
		return false, nil
	}
	predVars, ok := withTruePositives(pq, tps)
	if !ok {
		return false, nil
	}

	th, thet, err := Haplotypes(r.Ref, w, truthVars, r.GenotypeAware)
	if err != nil {
		return false, err
	}
	ph, phet, err := Haplotypes(r.Ref, w, predVars, r.GenotypeAware)
	if err != nil {
		return false, err
	}
	return th == ph && thet == phet, nil
}

// withTruePositives merges confirmed true positives into a queue, in
// position order. It fails when one of them overlaps a queued variant.
func withTruePositives(queue, tps []*variant.Variant) ([]*variant.Variant, bool) {
	out := slices.Clone(queue)
	for _, tp := range tps {
		for _, v := range queue {
			if tp.StrictlyOverlapsVariant(v) {
				return nil, false
			}
		}
		out = append(out, tp)
	}
	slices.SortStableFunc(out, func(a, b *variant.Variant) int {
		switch {
		case a.Pos < b.Pos:
			return -1
		case a.Pos > b.Pos:
			return 1
		}
		return 0
	})
	return out, true
}
