// Package output renders benchmark results: the text, TSV and JSON
// reports, and the annotated VCF that tags each classified call.
package output

import (
	"github.com/inodb/vibe-bench/internal/bounds"
	"github.com/inodb/vibe-bench/internal/eval"
	"github.com/inodb/vibe-bench/internal/variant"
)

// ErrorRates are the assumed error rates of the truth set per size bracket.
type ErrorRates struct {
	SNP   float64 `json:"snp"`
	Indel float64 `json:"indel"`
	SV    float64 `json:"sv"`
}

// Report is a finished evaluation ready to be rendered.
type Report struct {
	Stats   *eval.Stats
	Rates   ErrorRates
	KnownFP bool // a known false-positive set was supplied
}

// Budget returns how many truth calls of t's bracket are assumed wrong.
// Indel and SV budgets are computed over the whole bracket.
func (r *Report) Budget(t variant.Type) float64 {
	switch {
	case t.IsIndel():
		return bounds.ErrorBudget(r.Stats.Sum(variant.Type.IsIndel).NumTrue, r.Rates.Indel)
	case t.IsSV():
		return bounds.ErrorBudget(r.Stats.Sum(variant.Type.IsSV).NumTrue, r.Rates.SV)
	}
	return bounds.ErrorBudget(r.Stats.Get(variant.SNP).NumTrue, r.Rates.SNP)
}

// TypeSummary is one variant type's counts together with the derived
// bounds and rates.
type TypeSummary struct {
	Type string `json:"type"`
	eval.TypeStats
	ErrorBudget      float64         `json:"error_budget"`
	Precision        bounds.Interval `json:"precision"`
	Recall           bounds.Interval `json:"recall"`
	KnownFPPrecision *float64        `json:"known_fp_precision,omitempty"`
	NRD              float64         `json:"nrd"`
}

// Summarize computes the summary of a single type.
func (r *Report) Summarize(t variant.Type) TypeSummary {
	s := *r.Stats.Get(t)
	e := r.Budget(t)

	sum := TypeSummary{
		Type:        t.String(),
		TypeStats:   s,
		ErrorBudget: e,
		Precision:   bounds.Precision(s.TruePositives, s.FalsePositives, e),
		NRD:         eval.Ratio(s.NRDCounts()),
	}
	if t == variant.SNP {
		sum.Recall = bounds.Recall(s.TruePositives, s.FalseNegatives, e)
	} else {
		sum.Recall = bounds.Recall(s.NumTrue-s.FalseNegatives, s.FalseNegatives, e)
	}
	if r.KnownFP {
		p := s.KnownFPPrecision()
		sum.KnownFPPrecision = &p
	}
	return sum
}

// Summaries returns a summary for every type in report order.
func (r *Report) Summaries() []TypeSummary {
	out := make([]TypeSummary, 0, len(variant.Types))
	for _, t := range variant.Types {
		out = append(out, r.Summarize(t))
	}
	return out
}

func percent(n, of int) float64 {
	if of == 0 {
		return 100 * float64(n)
	}
	return 100 * float64(n) / float64(of)
}
