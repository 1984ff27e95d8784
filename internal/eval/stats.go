// Package eval compares a predicted callset against a truth callset one
// chromosome at a time: exact and structural matching, genotype
// concordance, rescue of representation differences, and the streaming
// driver that walks sorted inputs contig by contig.
package eval

import (
	"math"

	"github.com/inodb/vibe-bench/internal/variant"
)

// Concordance tallies (true genotype, predicted genotype) pairs over
// HomRef, Het and HomVar. Pairs involving a no-call are not recorded.
type Concordance [3][3]int

// Record adds one matched pair.
func (c *Concordance) Record(truth, pred variant.Genotype) {
	if truth > variant.HomVar || pred > variant.HomVar {
		return
	}
	c[truth][pred]++
}

// NRDCounts returns the non-reference discrepancy numerator and
// denominator: off-diagonal cells, and those plus the Het/Het and
// HomVar/HomVar agreements.
func (c *Concordance) NRDCounts() (wrong, total int) {
	for i := range c {
		for j := range c[i] {
			if i != j {
				wrong += c[i][j]
			}
		}
	}
	total = wrong + c[variant.Het][variant.Het] + c[variant.HomVar][variant.HomVar]
	return wrong, total
}

// NRD returns the non-reference discrepancy as a fraction, 0 when undefined.
func (c *Concordance) NRD() float64 {
	wrong, total := c.NRDCounts()
	if total == 0 {
		return 0
	}
	return float64(wrong) / float64(total)
}

func (c *Concordance) add(o *Concordance) {
	for i := range c {
		for j := range c[i] {
			c[i][j] += o[i][j]
		}
	}
}

// TypeStats is the aggregate for one variant type.
type TypeStats struct {
	NumTrue        int `json:"num_true"`
	NumPred        int `json:"num_pred"`
	TruePositives  int `json:"true_positives"`
	FalsePositives int `json:"false_positives"`
	FalseNegatives int `json:"false_negatives"`
	AlleleMismatch int `json:"allele_mismatch"`
	KnownFP        int `json:"known_fp"`
	KnownFPCalls   int `json:"known_fp_calls"`
	Rescued        int `json:"rescued"`

	Concordance Concordance `json:"concordance"`
}

// NRDCounts forwards to the concordance tally.
func (s *TypeStats) NRDCounts() (wrong, total int) { return s.Concordance.NRDCounts() }

// Add folds o into s.
func (s *TypeStats) Add(o *TypeStats) {
	s.NumTrue += o.NumTrue
	s.NumPred += o.NumPred
	s.TruePositives += o.TruePositives
	s.FalsePositives += o.FalsePositives
	s.FalseNegatives += o.FalseNegatives
	s.AlleleMismatch += o.AlleleMismatch
	s.KnownFP += o.KnownFP
	s.KnownFPCalls += o.KnownFPCalls
	s.Rescued += o.Rescued
	s.Concordance.add(&o.Concordance)
}

// Precision returns the point precision TP/(TP+FP) as reported.
func (s *TypeStats) Precision() float64 {
	return Ratio(s.TruePositives, s.TruePositives+s.FalsePositives)
}

// Recall returns the point recall TP/(TP+FN) as reported.
func (s *TypeStats) Recall() float64 {
	return Ratio(s.TruePositives, s.TruePositives+s.FalseNegatives)
}

// KnownFPPrecision is the share of known false-positive sites the caller
// did not call.
func (s *TypeStats) KnownFPPrecision() float64 {
	return 1 - Ratio(s.KnownFPCalls, s.KnownFP)
}

// Stats holds one TypeStats per variant type.
type Stats struct {
	ByType [variant.NumTypes]TypeStats
}

// Get returns the record for t.
func (s *Stats) Get(t variant.Type) *TypeStats { return &s.ByType[t] }

// Add folds every type of o into s.
func (s *Stats) Add(o *Stats) {
	for i := range s.ByType {
		s.ByType[i].Add(&o.ByType[i])
	}
}

// Sum totals the given types, for example every indel type.
func (s *Stats) Sum(keep func(variant.Type) bool) TypeStats {
	var out TypeStats
	for _, t := range variant.Types {
		if keep(t) {
			out.Add(&s.ByType[t])
		}
	}
	return out
}

// Ratio returns a/b truncated to five decimals. A zero denominator gives 1
// when a is positive and 0 otherwise.
func Ratio(a, b int) float64 {
	if b == 0 {
		if a > 0 {
			return 1
		}
		return 0
	}
	return math.Trunc(float64(a)/float64(b)*1e5) / 1e5
}
