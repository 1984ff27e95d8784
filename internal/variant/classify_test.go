package variant

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-bench/internal/vcf"
)

func TestClassify(t *testing.T) {
	long := strings.Repeat("A", 60)
	tests := []struct {
		name string
		ref  string
		alts []string
		want Type
	}{
		{"snp", "A", []string{"T"}, SNP},
		{"multi-allelic snp", "A", []string{"T", "G"}, SNP},
		{"deletion", "ACG", []string{"A"}, IndelDel},
		{"insertion", "A", []string{"ACGT"}, IndelIns},
		{"insertion multi", "A", []string{"AC", "ACC"}, IndelIns},
		{"full inversion", "ACT", []string{"TCA"}, IndelInv},
		{"padded inversion", "ACGATT", []string{"ATTAGC"}, IndelInv},
		{"padded inversion short", "ATGC", []string{"ACGT"}, IndelInv},
		{"mnp", "TGC", []string{"TAT"}, IndelOth},
		{"complex", "GCCG", []string{"GCA"}, IndelOth},
		{"two alts ref>1", "AC", []string{"A", "ACC"}, IndelOth},
		{"sv deletion", long, []string{"A"}, SVDel},
		{"sv insertion", "A", []string{long}, SVIns},
		{"sv other", long, []string{long[:55]}, SVOth},
		{"symbolic del", "A", []string{"<DEL>"}, SVDel},
		{"symbolic dup", "A", []string{"<DUP:TANDEM>"}, SVIns},
		{"symbolic inv", "A", []string{"<INV>"}, SVOth},
		{"breakend", "A", []string{"A[chr2:100["}, SVOth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.ref, tt.alts, DefaultMaxIndelLen)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Classify(tt.ref, tt.alts, DefaultMaxIndelLen), "classification must be stable")
		})
	}
}

func TestClassify_BoundaryLength(t *testing.T) {
	at := strings.Repeat("A", 50)
	over := strings.Repeat("A", 51)
	assert.Equal(t, IndelIns, Classify("A", []string{at}, 50))
	assert.Equal(t, SVIns, Classify("A", []string{over}, 50))
	assert.Equal(t, IndelDel, Classify(at, []string{"A"}, 50))
	assert.Equal(t, SVDel, Classify(over, []string{"A"}, 50))
}

func TestParseGenotype(t *testing.T) {
	tests := map[string]Genotype{
		"0/0": HomRef,
		"0|0": HomRef,
		"0/1": Het,
		"1|0": Het,
		"1/2": Het,
		"1/1": HomVar,
		"2|2": HomVar,
		"1":   HomVar,
		"0":   HomRef,
		"./.": NoCall,
		"./1": NoCall,
		".":   NoCall,
		"":    NoCall,
	}
	for gt, want := range tests {
		assert.Equal(t, want, ParseGenotype(gt), gt)
	}
}

func TestTypeNames(t *testing.T) {
	for _, typ := range Types {
		parsed, ok := ParseType(typ.String())
		require.True(t, ok)
		assert.Equal(t, typ, parsed)
	}
	assert.True(t, SVIns.IsSV())
	assert.False(t, SVIns.IsIndel())
	assert.True(t, IndelInv.IsIndel())
	assert.False(t, SNP.IsSV())
	assert.Len(t, Types, NumTypes)
}

func record(pos int64, ref, alt, gt string) *vcf.Variant {
	return &vcf.Variant{Chrom: "chr1", Pos: pos, Ref: ref, Alt: alt, Filter: "PASS", Format: "GT", Samples: []string{gt}}
}

func TestFromRecord_ContractViolations(t *testing.T) {
	tests := []struct {
		name string
		rec  *vcf.Variant
		opts Options
	}{
		{"lower-case ref", record(1, "a", "T", "0/1"), Options{}},
		{"no alt", record(1, "A", ".", "0/1"), Options{}},
		{"hom ref", record(1, "A", "T", "0/0"), Options{}},
		{"no call", record(1, "A", "T", "./."), Options{}},
		{"two samples", &vcf.Variant{Chrom: "chr1", Pos: 1, Ref: "A", Alt: "T", Format: "GT", Samples: []string{"0/1", "1/1"}}, Options{}},
		{"known fp still needs upper case", record(1, "a", "T", "0/1"), Options{KnownFP: true}},
		{"known fp still needs an alt", record(1, "A", ".", "0/0"), Options{KnownFP: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromRecord(tt.rec, tt.opts)
			var ce *ContractError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, int64(1), ce.Pos)
		})
	}
}

func TestFromRecord_Accepted(t *testing.T) {
	v, err := FromRecord(record(7, "G", "A", "0/0"), Options{KnownFP: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, v.Alts)
	assert.Equal(t, HomRef, v.Genotype)

	sv, err := FromRecord(record(9, "A", "<DEL>", "./."), Options{})
	require.NoError(t, err)
	assert.Equal(t, SVDel, sv.Type)
	assert.Equal(t, NoCall, sv.Genotype)

	het, err := FromRecord(record(3, "AT", "A", "0|1"), Options{})
	require.NoError(t, err)
	assert.Equal(t, IndelDel, het.Type)
	assert.Equal(t, Het, het.Genotype)
}
