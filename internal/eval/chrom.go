package eval

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/inodb/vibe-bench/internal/variant"
	"github.com/inodb/vibe-bench/internal/vcf"
)

// Options configures an Evaluator.
type Options struct {
	MaxIndelLen int
	EpsBp       int64
	EpsLen      int64
}

// DefaultOptions returns the standard tolerances.
func DefaultOptions() Options {
	return Options{
		MaxIndelLen: variant.DefaultMaxIndelLen,
		EpsBp:       DefaultEpsBp,
		EpsLen:      DefaultEpsLen,
	}
}

// Evaluator compares callsets one chromosome at a time.
type Evaluator struct {
	opts    Options
	rescuer *Rescuer
	logger  *zap.Logger
}

// NewEvaluator creates an evaluator. A nil rescuer disables rescue.
func NewEvaluator(opts Options, rescuer *Rescuer) *Evaluator {
	return &Evaluator{opts: opts, rescuer: rescuer, logger: zap.NewNop()}
}

// SetLogger sets the logger, also used by the collections the evaluator builds.
func (e *Evaluator) SetLogger(l *zap.Logger) {
	e.logger = l
}

// Options returns the evaluator's options.
func (e *Evaluator) Options() Options { return e.opts }

// Build loads one contig's records into a collection.
func (e *Evaluator) Build(chrom string, recs []*vcf.Variant, knownFP bool) (*variant.ChromVariants, error) {
	c := variant.NewChromVariants(chrom, variant.Options{MaxIndelLen: e.opts.MaxIndelLen, KnownFP: knownFP})
	c.SetLogger(e.logger)
	for _, r := range recs {
		if err := c.Add(r); err != nil {
			return nil, fmt.Errorf("load %s: %w", chrom, err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ChromResult is the outcome for one chromosome. TruePositives and
// FalseNegatives hold truth variants; FalsePositives, Rescued and
// KnownFPCalls hold predicted variants. KnownFPCalls is nil when no
// known-false-positive set was given.
type ChromResult struct {
	Chrom string
	Stats Stats

	TruePositives  *variant.ChromVariants
	FalsePositives *variant.ChromVariants
	FalseNegatives *variant.ChromVariants
	Rescued        *variant.ChromVariants
	KnownFPCalls   *variant.ChromVariants
}

// EvaluateChrom matches pred against truth. knownFP may be nil.
func (e *Evaluator) EvaluateChrom(truth, pred, knownFP *variant.ChromVariants) (*ChromResult, error) {
	chrom := truth.Chrom()
	if pred.Chrom() != chrom || (knownFP != nil && knownFP.Chrom() != chrom) {
		return nil, fmt.Errorf("evaluate %s: collections are for different chromosomes", chrom)
	}

	res := &ChromResult{Chrom: chrom}
	st := &res.Stats
	for _, t := range variant.Types {
		st.ByType[t].NumTrue = truth.NumOfType(t)
		st.ByType[t].NumPred = pred.NumOfType(t)
	}

	tp := make(map[int64]bool)
	fp := make(map[int64]bool)
	fn := make(map[int64]bool)
	for _, p := range pred.Locations() {
		if !truth.Has(p) {
			fp[p] = true
		}
	}

	var mismatched []int64
	for _, p := range truth.Locations() {
		tv, _ := truth.At(p)
		pv, shared := pred.At(p)
		switch {
		case !shared:
			fn[p] = true
		case tv.Type.IsSV():
			// Handled with the tolerance match below.
			fn[p] = true
			fp[p] = true
		case tv.Type == pv.Type && tv.AltSetEqual(pv):
			tp[p] = true
			st.ByType[tv.Type].Concordance.Record(tv.Genotype, pv.Genotype)
		default:
			st.ByType[tv.Type].AlleleMismatch++
			mismatched = append(mismatched, p)
		}
	}

	knownCalls := make(map[int64]bool)
	if knownFP != nil {
		for _, p := range pred.Locations() {
			kv, ok := knownFP.At(p)
			if !ok {
				continue
			}
			st.ByType[kv.Type].KnownFP++
			pv, _ := pred.At(p)
			if sharesAlt(kv, pv) {
				st.ByType[kv.Type].KnownFPCalls++
				knownCalls[p] = true
			}
		}
	}

	for _, p := range truth.Locations() {
		tv, _ := truth.At(p)
		if !fn[p] || !tv.Type.IsSV() {
			continue
		}
		m, ok := FindStructuralMatch(tv, pred, e.opts.EpsBp, e.opts.EpsLen)
		if !ok || !fp[m] {
			continue
		}
		delete(fp, m)
		delete(fn, p)
		tp[p] = true
		pv, _ := pred.At(m)
		st.ByType[tv.Type].Concordance.Record(tv.Genotype, pv.Genotype)
	}

	for _, p := range mismatched {
		fp[p] = true
		fn[p] = true
	}

	res.TruePositives = truth.Subset(tp)
	res.FalsePositives = pred.Subset(fp)
	res.FalseNegatives = truth.Subset(fn)
	res.Rescued = variant.NewChromVariants(chrom, pred.Options())
	res.Rescued.SetLogger(e.logger)
	countTypes(res.TruePositives, func(s *TypeStats) { s.TruePositives++ }, st)
	countTypes(res.FalsePositives, func(s *TypeStats) { s.FalsePositives++ }, st)
	countTypes(res.FalseNegatives, func(s *TypeStats) { s.FalseNegatives++ }, st)

	if e.rescuer != nil {
		if err := e.rectify(res); err != nil {
			return nil, err
		}
	}

	if knownFP != nil {
		res.KnownFPCalls = pred.Subset(knownCalls)
	}
	return res, nil
}

func sharesAlt(a, b *variant.Variant) bool {
	for _, x := range a.Alts {
		if slices.Contains(b.Alts, x) {
			return true
		}
	}
	return false
}

func countTypes(c *variant.ChromVariants, inc func(*TypeStats), st *Stats) {
	for _, v := range c.Variants() {
		inc(&st.ByType[v.Type])
	}
}

// rectify runs a rescue for every false negative still present. A rescued
// truth queue becomes true positives; the matching predicted queue leaves
// the false positives for the rescued set. Predicted totals change with it:
// two predicted SNPs rescued as one deletion count as one prediction.
func (e *Evaluator) rectify(res *ChromResult) error {
	st := &res.Stats
	for _, loc := range slices.Clone(res.FalseNegatives.Locations()) {
		if !res.FalseNegatives.Has(loc) {
			continue
		}
		rr, err := e.rescuer.Rescue(loc, res.FalseNegatives, res.FalsePositives, res.TruePositives)
		if err != nil {
			return fmt.Errorf("rescue %s:%d: %w", res.Chrom, loc, err)
		}
		if !rr.Rescued {
			continue
		}
		for _, v := range rr.Truth {
			res.FalseNegatives.Remove(v.Pos)
			res.TruePositives.Insert(v)
			s := &st.ByType[v.Type]
			s.NumPred++
			s.FalseNegatives--
			s.TruePositives++
			s.Rescued++
		}
		for _, v := range rr.Pred {
			res.FalsePositives.Remove(v.Pos)
			res.Rescued.Insert(v)
			s := &st.ByType[v.Type]
			s.NumPred--
			s.FalsePositives--
		}
		e.logger.Debug("rescued",
			zap.String("chrom", res.Chrom), zap.Int64("pos", loc),
			zap.Int("truth", len(rr.Truth)), zap.Int("pred", len(rr.Pred)),
			zap.Stringer("window", rr.Window))
	}
	return nil
}
