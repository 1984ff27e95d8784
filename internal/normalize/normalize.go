// Package normalize puts VCF records into a canonical left-aligned form
// before evaluation, and separates records that land on the same position.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-bench/internal/reference"
	"github.com/inodb/vibe-bench/internal/variant"
	"github.com/inodb/vibe-bench/internal/vcf"
)

// OriginalPosTag is the INFO key recording the position of a record before
// it was shifted. A tag already on the input is kept.
const OriginalPosTag = "OP"

// Stats summarizes one normalization run.
type Stats struct {
	Seen              int   `json:"seen"`
	Filtered          int   `json:"filtered"`
	Normalized        int   `json:"normalized"`
	Shifted           int   `json:"shifted"`
	TotalShift        int64 `json:"total_shift"`
	MaxShift          int64 `json:"max_shift"`
	CollisionShifts   int   `json:"collision_shifts"`
	CollisionDiscards int   `json:"collision_discards"`
	DuplicateDiscards int   `json:"duplicate_discards"`
}

// MeanShift is the average left shift over all normalized records.
func (s Stats) MeanShift() float64 {
	if s.Normalized == 0 {
		return 0
	}
	return float64(s.TotalShift) / float64(s.Normalized)
}

// ShiftedFraction is the share of normalized records that moved.
func (s Stats) ShiftedFraction() float64 {
	if s.Normalized == 0 {
		return 0
	}
	return float64(s.Shifted) / float64(s.Normalized)
}

// Normalizer left-normalizes records against a reference.
type Normalizer struct {
	ref         reference.Reference
	maxIndelLen int
	cleanOnly   bool
	stats       Stats
	logger      *zap.Logger
}

// New creates a normalizer.
func New(ref reference.Reference, maxIndelLen int) *Normalizer {
	if maxIndelLen <= 0 {
		maxIndelLen = variant.DefaultMaxIndelLen
	}
	return &Normalizer{ref: ref, maxIndelLen: maxIndelLen, logger: zap.NewNop()}
}

// SetCleanOnly limits normalization to filtering and upper-casing alleles.
func (n *Normalizer) SetCleanOnly(clean bool) {
	n.cleanOnly = clean
}

// SetLogger sets the logger for discarded records.
func (n *Normalizer) SetLogger(l *zap.Logger) {
	n.logger = l
}

// Stats returns the counters accumulated so far.
func (n *Normalizer) Stats() Stats { return n.stats }

// Accept reports whether a record takes part in normalization: it passes
// filters, carries a variant genotype (or is structural), and every literal
// allele consists of A, C, G and T only.
func (n *Normalizer) Accept(rec *vcf.Variant) bool {
	if !rec.IsPass() {
		return false
	}
	ref := strings.ToUpper(rec.Ref)
	alts := rec.Alts()
	if len(alts) == 0 {
		return false
	}
	sv := variant.IsStructural(ref, alts, n.maxIndelLen)
	switch variant.ParseGenotype(rec.Genotype()) {
	case variant.HomRef:
		return false
	case variant.NoCall:
		if !sv {
			return false
		}
	}
	if !isBases(ref) {
		return false
	}
	for _, a := range alts {
		if variant.IsSymbolic(a) {
			continue
		}
		if !isBases(strings.ToUpper(a)) {
			return false
		}
	}
	return true
}

func isBases(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'A', 'C', 'G', 'T':
		default:
			return false
		}
	}
	return true
}

// TrimSuffix returns the length of the longest common suffix of alleles
// that leaves every allele at least one base long.
func TrimSuffix(alleles []string) int {
	if len(alleles) == 0 {
		return 0
	}
	minLen := len(alleles[0])
	for _, a := range alleles[1:] {
		minLen = min(minLen, len(a))
	}
	n := 0
	for n < minLen-1 {
		c := alleles[0][len(alleles[0])-1-n]
		for _, a := range alleles[1:] {
			if a[len(a)-1-n] != c {
				return n
			}
		}
		n++
	}
	return n
}

// LeftNormalize slides a variant left while every allele ends in the same
// base, prepending the preceding reference base and dropping the last one.
// pos is 0-based. It returns the new position and alleles.
func LeftNormalize(ref reference.Reference, chrom string, pos int64, refAllele string, alts []string) (int64, string, []string, error) {
	alts = append([]string(nil), alts...)
	for pos > 0 && sameLastBase(refAllele, alts) && !allEqual(refAllele, alts) {
		pos--
		prev, err := ref.Ref(chrom, pos, pos+1)
		if err != nil {
			return 0, "", nil, err
		}
		if len(prev) != 1 {
			return 0, "", nil, fmt.Errorf("no reference base at %s:%d", chrom, pos+1)
		}
		refAllele = prev + refAllele[:len(refAllele)-1]
		for i, a := range alts {
			alts[i] = prev + a[:len(a)-1]
		}
	}
	return pos, refAllele, alts, nil
}

func sameLastBase(ref string, alts []string) bool {
	if ref == "" {
		return false
	}
	last := ref[len(ref)-1]
	for _, a := range alts {
		if a == "" || a[len(a)-1] != last {
			return false
		}
	}
	return true
}

func sameFirstBase(ref string, alts []string) bool {
	if ref == "" {
		return false
	}
	for _, a := range alts {
		if a == "" || a[0] != ref[0] {
			return false
		}
	}
	return true
}

func allEqual(ref string, alts []string) bool {
	for _, a := range alts {
		if a != ref {
			return false
		}
	}
	return true
}

// normed is a record after normalization plus whether it moved.
type normed struct {
	rec     *vcf.Variant
	shifted bool
}

// Record normalizes one accepted record. The input is not modified.
func (n *Normalizer) Record(rec *vcf.Variant) (*vcf.Variant, bool, error) {
	out := rec.Clone()
	ref := strings.ToUpper(rec.Ref)
	alts := rec.Alts()
	for i, a := range alts {
		alts[i] = strings.ToUpper(a)
	}
	out.Ref, out.Alt = ref, strings.Join(alts, ",")
	if n.cleanOnly {
		return out, false, nil
	}
	for _, a := range alts {
		if variant.IsSymbolic(a) {
			return out, false, nil
		}
	}

	if k := TrimSuffix(append([]string{ref}, alts...)); k > 0 {
		ref = ref[:len(ref)-k]
		for i, a := range alts {
			alts[i] = a[:len(a)-k]
		}
	}
	pos0 := rec.Pos - 1
	newPos, ref, alts, err := LeftNormalize(n.ref, rec.Chrom, pos0, ref, alts)
	if err != nil {
		return nil, false, fmt.Errorf("normalize %s:%d: %w", rec.Chrom, rec.Pos, err)
	}
	out.Pos = newPos + 1
	out.Ref, out.Alt = ref, strings.Join(alts, ",")

	shift := pos0 - newPos
	if shift > 0 {
		if _, ok := rec.InfoValue(OriginalPosTag); !ok {
			out.AddInfo(OriginalPosTag, strconv.FormatInt(rec.Pos, 10))
		}
		n.stats.Shifted++
		n.stats.TotalShift += shift
		n.stats.MaxShift = max(n.stats.MaxShift, shift)
	}
	return out, shift > 0, nil
}

// Contig filters and normalizes the records of one contig and resolves
// position collisions among the results. Output is sorted by position.
func (n *Normalizer) Contig(chrom string, recs []*vcf.Variant) ([]*vcf.Variant, error) {
	var kept []normed
	for _, rec := range recs {
		n.stats.Seen++
		if !n.Accept(rec) {
			n.stats.Filtered++
			continue
		}
		out, shifted, err := n.Record(rec)
		if err != nil {
			return nil, err
		}
		n.stats.Normalized++
		kept = append(kept, normed{rec: out, shifted: shifted})
	}
	if n.cleanOnly {
		out := make([]*vcf.Variant, len(kept))
		for i, k := range kept {
			out[i] = k.rec
		}
		return out, nil
	}
	return n.resolveCollisions(chrom, kept)
}
