package maf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-bench/internal/reference"
	"github.com/inodb/vibe-bench/internal/vcf"
)

const sampleMAF = `#version 2.4
Hugo_Symbol	Chromosome	Start_Position	End_Position	Reference_Allele	Tumor_Seq_Allele1	Tumor_Seq_Allele2	FILTER
GENE1	1	2	2	C	C	T	PASS
GENE1	1	3	4	-	-	TT	PASS
GENE1	1	4	5	TA	TA	-	PASS
GENE1	1	6	6	C	T	T	common_variant
GENE1	1	7	7	G	G	G	PASS

GENE1	1	8	8	T	G	C	PASS
`

func testRef() reference.Reference {
	return reference.NewMemory([]string{"1"}, map[string]string{"1": "ACGTACGTAC"})
}

func readAll(t *testing.T, p *Parser) []*vcf.Variant {
	t.Helper()
	var out []*vcf.Variant
	for {
		v, err := p.Next()
		require.NoError(t, err)
		if v == nil {
			return out
		}
		out = append(out, v)
	}
}

func TestParser_Records(t *testing.T) {
	p, err := NewParserFromReader(strings.NewReader(sampleMAF), testRef())
	require.NoError(t, err)

	cols := p.Columns()
	assert.Equal(t, 1, cols.Chromosome)
	assert.Equal(t, 2, cols.StartPosition)
	assert.Equal(t, 4, cols.ReferenceAllele)
	assert.Equal(t, 5, cols.TumorSeqAllele1)
	assert.Equal(t, 6, cols.TumorSeqAllele2)
	assert.Equal(t, 7, cols.Filter)
	assert.True(t, strings.HasPrefix(p.Header(), "Hugo_Symbol"))

	vs := readAll(t, p)
	require.Len(t, vs, 5)

	tests := []struct {
		pos    int64
		ref    string
		alt    string
		gt     string
		filter string
	}{
		{2, "C", "T", "0/1", "PASS"},
		{3, "G", "GTT", "0/1", "PASS"},     // insertion anchored on its start base
		{3, "GTA", "G", "0/1", "PASS"},     // deletion anchored on the base before it
		{6, "C", "T", "1/1", "common_variant"},
		{8, "T", "G,C", "1/2", "PASS"},
	}
	for i, tt := range tests {
		v := vs[i]
		assert.Equal(t, "1", v.Chrom)
		assert.Equal(t, tt.pos, v.Pos, "record %d", i)
		assert.Equal(t, tt.ref, v.Ref, "record %d", i)
		assert.Equal(t, tt.alt, v.Alt, "record %d", i)
		assert.Equal(t, tt.gt, v.Genotype(), "record %d", i)
		assert.Equal(t, tt.filter, v.Filter, "record %d", i)
	}
}

func TestParser_IndelWithoutReference(t *testing.T) {
	p, err := NewParserFromReader(strings.NewReader(sampleMAF), nil)
	require.NoError(t, err)

	v, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.Pos)

	_, err = p.Next()
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 4, pe.Line)
	assert.Contains(t, pe.Message, "anchor")
}

func TestParser_UnknownContig(t *testing.T) {
	maf := "Chromosome\tStart_Position\tReference_Allele\tTumor_Seq_Allele2\n" +
		"2\t5\tA\t-\n"
	p, err := NewParserFromReader(strings.NewReader(maf), testRef())
	require.NoError(t, err)

	_, err = p.Next()
	var unknown *reference.UnknownContigError
	assert.ErrorAs(t, err, &unknown)
}

func TestParser_NoAllele1Column(t *testing.T) {
	maf := "Chromosome\tStart_Position\tReference_Allele\tTumor_Seq_Allele2\n" +
		"1\t2\tc\tt\n"
	p, err := NewParserFromReader(strings.NewReader(maf), nil)
	require.NoError(t, err)

	v, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "C", v.Ref)
	assert.Equal(t, "T", v.Alt)
	assert.Equal(t, "0/1", v.Genotype())
	assert.True(t, v.IsPass())
}

func TestParser_HeaderErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"empty", "", "no header line found"},
		{"comments only", "#version 2.4\n", "no header line found"},
		{"missing allele column", "Chromosome\tStart_Position\tReference_Allele\n", "Tumor_Seq_Allele2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParserFromReader(strings.NewReader(tt.data), nil)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Contains(t, pe.Message, tt.want)
		})
	}
}

func TestParser_LineErrors(t *testing.T) {
	header := "Chromosome\tStart_Position\tReference_Allele\tTumor_Seq_Allele2\n"
	tests := []struct {
		name string
		line string
		want string
	}{
		{"short row", "1\t2\tC\n", "expected at least 4 columns"},
		{"bad position", "1\tx\tC\tT\n", "invalid position"},
		{"deletion at contig start", "1\t1\tA\t-\n", "cannot be anchored"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewParserFromReader(strings.NewReader(header+tt.line), testRef())
			require.NoError(t, err)
			_, err = p.Next()
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Contains(t, pe.Message, tt.want)
		})
	}
}

func TestNewParser_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.maf.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(sampleMAF))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	p, err := NewParser(path, testRef())
	require.NoError(t, err)
	defer p.Close()
	assert.Len(t, readAll(t, p), 5)
}

func TestNewParser_MissingFile(t *testing.T) {
	_, err := NewParser(filepath.Join(t.TempDir(), "missing.maf"), nil)
	assert.Error(t, err)
}

var _ vcf.VariantParser = (*Parser)(nil)
