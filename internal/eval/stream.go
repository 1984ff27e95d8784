package eval

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/inodb/vibe-bench/internal/normalize"
	"github.com/inodb/vibe-bench/internal/reference"
	"github.com/inodb/vibe-bench/internal/variant"
	"github.com/inodb/vibe-bench/internal/vcf"
)

// ContigStream yields the records of one callset a contig at a time.
// Next returns nil when the stream is exhausted.
type ContigStream interface {
	Next() (*vcf.ContigGroup, error)
}

// AnnotatedSink receives the annotated lines of each evaluated contig.
type AnnotatedSink interface {
	WriteLines(lines []AnnotatedLine) error
}

// Driver walks the truth, predicted and known-false-positive streams in
// lockstep and evaluates one contig at a time, so memory is bounded by the
// largest contig rather than the whole callset.
type Driver struct {
	Evaluator *Evaluator
	// Normalizer, when set, left-normalizes truth and predicted records
	// before they are evaluated.
	Normalizer *normalize.Normalizer
	// Order ranks contigs. Contigs it does not know sort after known ones.
	Order reference.ContigOrder
	// Annotated, when set, receives the classified variants.
	Annotated AnnotatedSink

	logger *zap.Logger
}

// NewDriver creates a driver around an evaluator.
func NewDriver(e *Evaluator) *Driver {
	return &Driver{Evaluator: e, logger: zap.NewNop()}
}

// SetLogger sets the logger for per-contig progress.
func (d *Driver) SetLogger(l *zap.Logger) {
	d.logger = l
}

// Run evaluates the streams to the end and returns the genome-wide totals.
// knownFP may be nil. Each stream must be grouped by contig and its contigs
// must appear in Order, or in name order when Order is nil. A contig that
// turns up again after it was evaluated is an error.
func (d *Driver) Run(ctx context.Context, truth, pred, knownFP ContigStream) (*Stats, error) {
	streams := []ContigStream{truth, pred, knownFP}
	heads := make([]*vcf.ContigGroup, len(streams))
	advance := func(i int) error {
		if streams[i] == nil {
			heads[i] = nil
			return nil
		}
		g, err := streams[i].Next()
		if err != nil {
			return err
		}
		heads[i] = g
		return nil
	}
	for i := range streams {
		if err := advance(i); err != nil {
			return nil, err
		}
	}

	total := &Stats{}
	last := ""
	done := map[string]bool{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chrom, ok := d.nextContig(heads)
		if !ok {
			break
		}
		if d.Order != nil && last != "" && d.Order.Index(last) >= 0 && reference.Compare(d.Order, chrom, last) < 0 {
			return nil, fmt.Errorf("contig %s appears after %s: input is not in reference order", chrom, last)
		}
		if done[chrom] {
			return nil, fmt.Errorf("contig %s seen again after it was evaluated: inputs are not sorted consistently", chrom)
		}
		last = chrom
		done[chrom] = true

		var recs [3][]*vcf.Variant
		for i, h := range heads {
			if h == nil || h.Chrom != chrom {
				continue
			}
			recs[i] = h.Records
			if err := advance(i); err != nil {
				return nil, err
			}
		}

		res, err := d.evaluate(chrom, recs[0], recs[1], recs[2], knownFP != nil)
		if err != nil {
			return nil, err
		}
		total.Add(&res.Stats)
		if d.Annotated != nil {
			if err := d.Annotated.WriteLines(res.Annotated()); err != nil {
				return nil, fmt.Errorf("write annotated %s: %w", chrom, err)
			}
		}
		d.logger.Debug("contig evaluated", zap.String("chrom", chrom),
			zap.Int("truth", len(recs[0])), zap.Int("pred", len(recs[1])))
	}
	return total, nil
}

// nextContig picks the smallest contig among the stream heads.
func (d *Driver) nextContig(heads []*vcf.ContigGroup) (string, bool) {
	chrom, found := "", false
	for _, h := range heads {
		if h == nil {
			continue
		}
		if !found || reference.Compare(d.Order, h.Chrom, chrom) < 0 {
			chrom, found = h.Chrom, true
		}
	}
	return chrom, found
}

func (d *Driver) evaluate(chrom string, truthRecs, predRecs, knownRecs []*vcf.Variant, withKnown bool) (*ChromResult, error) {
	if d.Normalizer != nil {
		var err error
		if truthRecs, err = d.Normalizer.Contig(chrom, truthRecs); err != nil {
			return nil, fmt.Errorf("normalize truth: %w", err)
		}
		if predRecs, err = d.Normalizer.Contig(chrom, predRecs); err != nil {
			return nil, fmt.Errorf("normalize predictions: %w", err)
		}
	}
	return d.Evaluator.evaluateRecords(chrom, truthRecs, predRecs, knownRecs, withKnown)
}

func (e *Evaluator) evaluateRecords(chrom string, truthRecs, predRecs, knownRecs []*vcf.Variant, withKnown bool) (*ChromResult, error) {
	truth, err := e.Build(chrom, truthRecs, false)
	if err != nil {
		return nil, fmt.Errorf("truth: %w", err)
	}
	pred, err := e.Build(chrom, predRecs, false)
	if err != nil {
		return nil, fmt.Errorf("predictions: %w", err)
	}
	var known *variant.ChromVariants
	if withKnown {
		if known, err = e.Build(chrom, knownRecs, true); err != nil {
			return nil, fmt.Errorf("known false positives: %w", err)
		}
	}
	return e.EvaluateChrom(truth, pred, known)
}

// EvaluateAll evaluates fully loaded callsets. Contigs are visited in name
// order; the totals do not depend on the order.
func (e *Evaluator) EvaluateAll(truth, pred, knownFP []*vcf.ContigGroup) (*Stats, error) {
	byChrom := make(map[string]*[3][]*vcf.Variant)
	collect := func(i int, groups []*vcf.ContigGroup) {
		for _, g := range groups {
			r, ok := byChrom[g.Chrom]
			if !ok {
				r = new([3][]*vcf.Variant)
				byChrom[g.Chrom] = r
			}
			r[i] = append(r[i], g.Records...)
		}
	}
	collect(0, truth)
	collect(1, pred)
	collect(2, knownFP)

	chroms := make([]string, 0, len(byChrom))
	for c := range byChrom {
		chroms = append(chroms, c)
	}
	sort.Strings(chroms)

	total := &Stats{}
	for _, c := range chroms {
		r := byChrom[c]
		res, err := e.evaluateRecords(c, r[0], r[1], r[2], knownFP != nil)
		if err != nil {
			return nil, err
		}
		total.Add(&res.Stats)
	}
	return total, nil
}
