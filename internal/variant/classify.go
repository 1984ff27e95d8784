package variant

import (
	"fmt"
	"strings"

	"github.com/inodb/vibe-bench/internal/vcf"
)

// DefaultMaxIndelLen is the largest allele length still treated as an indel.
const DefaultMaxIndelLen = 50

// IsSymbolic reports whether an alt allele uses symbolic or breakend notation
// instead of literal bases.
func IsSymbolic(alt string) bool {
	return strings.ContainsAny(alt, "<[]")
}

// IsStructural reports whether a record with these alleles is an SV: the ref
// or some literal alt is longer than maxIndelLen, or some alt is symbolic.
func IsStructural(ref string, alts []string, maxIndelLen int) bool {
	if len(ref) > maxIndelLen {
		return true
	}
	for _, a := range alts {
		if IsSymbolic(a) || len(a) > maxIndelLen {
			return true
		}
	}
	return false
}

// Classify assigns a type from allele shapes alone.
func Classify(ref string, alts []string, maxIndelLen int) Type {
	snp := len(ref) == 1
	for _, a := range alts {
		if len(a) != 1 {
			snp = false
			break
		}
	}
	if snp {
		return SNP
	}

	if IsStructural(ref, alts, maxIndelLen) {
		if t, ok := symbolicType(alts); ok {
			return t
		}
		switch {
		case len(alts) == 1 && len(alts[0]) == 1:
			return SVDel
		case len(ref) == 1:
			return SVIns
		}
		return SVOth
	}

	switch {
	case len(alts) == 1 && len(alts[0]) == 1:
		return IndelDel
	case len(ref) == 1:
		return IndelIns
	case isInversion(ref, alts):
		return IndelInv
	}
	return IndelOth
}

// symbolicType maps <DEL>, <INS> and <DUP> style alleles to a type.
func symbolicType(alts []string) (Type, bool) {
	for _, a := range alts {
		if strings.ContainsAny(a, "[]") {
			return SVOth, true
		}
	}
	if len(alts) != 1 || !strings.HasPrefix(alts[0], "<") {
		return 0, false
	}
	tag := strings.Trim(alts[0], "<>")
	switch {
	case strings.HasPrefix(tag, "DEL"):
		return SVDel, true
	case strings.HasPrefix(tag, "INS"), strings.HasPrefix(tag, "DUP"):
		return SVIns, true
	}
	return SVOth, true
}

// isInversion reports whether some alt is the reverse of ref, either whole or
// after a shared leading padding base.
func isInversion(ref string, alts []string) bool {
	for _, a := range alts {
		if len(a) != len(ref) || a == ref {
			continue
		}
		if a == reverse(ref) {
			return true
		}
		if len(ref) > 2 && a[0] == ref[0] && a[1:] == reverse(ref[1:]) {
			return true
		}
	}
	return false
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// ContractError is a record that violates the input contract. It aborts
// the run.
type ContractError struct {
	Chrom  string
	Pos    int64
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("invalid record at %s:%d: %s", e.Chrom, e.Pos, e.Reason)
}

// Options controls how records become variants.
type Options struct {
	MaxIndelLen int
	// KnownFP marks a known-false-positive collection: filtered and
	// non-variant records are accepted.
	KnownFP bool
}

func (o Options) maxIndelLen() int {
	if o.MaxIndelLen <= 0 {
		return DefaultMaxIndelLen
	}
	return o.MaxIndelLen
}

// FromRecord validates a record and builds its Variant.
func FromRecord(rec *vcf.Variant, opts Options) (*Variant, error) {
	if rec.Ref != strings.ToUpper(rec.Ref) {
		return nil, &ContractError{rec.Chrom, rec.Pos, "lower-case bases in reference allele " + rec.Ref}
	}
	alts := rec.Alts()
	if len(alts) == 0 {
		return nil, &ContractError{rec.Chrom, rec.Pos, "record has no alt allele"}
	}
	if len(rec.Samples) > 1 {
		return nil, &ContractError{rec.Chrom, rec.Pos, fmt.Sprintf("expected a single sample, found %d", len(rec.Samples))}
	}

	gt := ParseGenotype(rec.Genotype())
	maxLen := opts.maxIndelLen()
	sv := IsStructural(rec.Ref, alts, maxLen)
	if !opts.KnownFP && !sv && (gt == HomRef || gt == NoCall) {
		return nil, &ContractError{rec.Chrom, rec.Pos, "non-variant genotype " + rec.Genotype()}
	}

	return &Variant{
		Pos:      rec.Pos,
		Ref:      rec.Ref,
		Alts:     alts,
		Type:     Classify(rec.Ref, alts, maxLen),
		Genotype: gt,
	}, nil
}
