package eval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/vibe-bench/internal/reference"
	"github.com/inodb/vibe-bench/internal/variant"
	"github.com/inodb/vibe-bench/internal/vcf"
)

func rescueAt(t *testing.T, ref reference.Reference, chrom string, locus int64, fn, fp, tp []*vcf.Variant) (RescueResult, error) {
	t.Helper()
	r := NewRescuer(ref, DefaultWindow)
	return r.Rescue(locus, chromOf(t, chrom, fn...), chromOf(t, chrom, fp...), chromOf(t, chrom, tp...))
}

func positions(vs []*variant.Variant) []int64 {
	out := make([]int64, len(vs))
	for i, v := range vs {
		out[i] = v.Pos
	}
	return out
}

func TestRescue_Rescued(t *testing.T) {
	ref := testdataRef(t)
	tests := []struct {
		name      string
		chrom     string
		locus     int64
		fn, fp    []*vcf.Variant
		tp        []*vcf.Variant
		wantTruth []int64
		wantPred  []int64
	}{
		{
			name:  "complex call split into snps",
			chrom: "chr2", locus: 2,
			fn:        []*vcf.Variant{call("chr2", 2, "TGC", "TAT", "1/1")},
			fp:        []*vcf.Variant{call("chr2", 3, "G", "A", "1/1"), call("chr2", 4, "C", "T", "1/1")},
			wantTruth: []int64{2}, wantPred: []int64{3, 4},
		},
		{
			name:  "deletion plus snp written as one record",
			chrom: "chr2", locus: 3,
			fn:        []*vcf.Variant{call("chr2", 3, "GCCG", "GCA", "1/1")},
			fp:        []*vcf.Variant{call("chr2", 3, "GC", "G", "1/1"), call("chr2", 6, "G", "A", "1/1")},
			wantTruth: []int64{3}, wantPred: []int64{3, 6},
		},
		{
			name:  "true positive spliced into both sides",
			chrom: "chr4", locus: 3,
			fn:        []*vcf.Variant{call("chr4", 3, "TC", "T", "1/1"), call("chr4", 8, "C", "T", "1/1")},
			fp:        []*vcf.Variant{call("chr4", 4, "C", "T", "1/1"), call("chr4", 7, "TC", "T", "1/1")},
			tp:        []*vcf.Variant{call("chr4", 5, "TC", "T", "1/1")},
			wantTruth: []int64{3, 8}, wantPred: []int64{4, 7},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := rescueAt(t, ref, tt.chrom, tt.locus, tt.fn, tt.fp, tt.tp)
			require.NoError(t, err)
			require.True(t, res.Rescued)
			assert.Equal(t, tt.wantTruth, positions(res.Truth))
			assert.Equal(t, tt.wantPred, positions(res.Pred))
		})
	}
}

func TestRescue_Window(t *testing.T) {
	res, err := rescueAt(t, testdataRef(t), "chr2", 2,
		[]*vcf.Variant{call("chr2", 2, "TGC", "TAT", "1/1")},
		[]*vcf.Variant{call("chr2", 3, "G", "A", "1/1"), call("chr2", 4, "C", "T", "1/1")},
		nil)
	require.NoError(t, err)
	assert.Equal(t, Window{Chrom: "chr2", Low: 1, High: 52}, res.Window)
}

func TestRescue_NotRescued(t *testing.T) {
	// No reference bases are read in any of these cases.
	ref := reference.NewMemory(nil, nil)
	sv1 := strings.Repeat("ATTGTTCATGA", 300)
	sv2 := strings.Repeat("GCCTAGGGTCA", 300)

	var manyClusters []*vcf.Variant
	for _, p := range []int64{20, 30, 50, 60, 70} {
		manyClusters = append(manyClusters, call("chr1", p, "ACC", "A", "1/1"), call("chr1", p+1, "CCG", "C", "1/1"))
	}

	tests := []struct {
		name   string
		locus  int64
		fn, fp []*vcf.Variant
		tp     []*vcf.Variant
	}{
		{
			name:  "window too big",
			locus: 10049,
			fn: []*vcf.Variant{
				call("chr1", 7001, sv1, "A", "1/1"),
				call("chr1", 10049, "C", "T", "0/1"),
				call("chr1", 10100, sv2, "G", "0/1"),
			},
			fp: []*vcf.Variant{call("chr1", 10049, "CTTAAGCT", "C", "1/1")},
		},
		{
			name:  "nothing predicted near the locus",
			locus: 8000,
			fn:    []*vcf.Variant{call("chr1", 8000, "G", "C", "1/1")},
			fp:    []*vcf.Variant{call("chr1", 10049, "CTTAAGCT", "C", "1/1")},
		},
		{
			name:  "too many queues",
			locus: 45,
			fn:    []*vcf.Variant{call("chr1", 45, "G", "C", "1/1")},
			fp:    manyClusters,
		},
		{
			name:  "only snps",
			locus: 2,
			fn:    []*vcf.Variant{call("chr1", 2, "A", "C", "1/1"), call("chr1", 7, "C", "T", "0/1")},
			fp:    []*vcf.Variant{call("chr1", 4, "A", "C", "1/1")},
		},
		{
			name:  "true positive overlaps the queue",
			locus: 4,
			fn:    []*vcf.Variant{call("chr1", 4, "C", "T", "1/1")},
			fp:    []*vcf.Variant{call("chr1", 6, "G", "GA", "1/1")},
			tp:    []*vcf.Variant{call("chr1", 3, "GCC", "G", "1/1")},
		},
		{
			name:  "structural locus",
			locus: 7001,
			fn:    []*vcf.Variant{call("chr1", 7001, sv1, "A", "1/1")},
			fp:    []*vcf.Variant{call("chr1", 7002, "TTG", "T", "1/1")},
		},
		{
			name:  "locus not a false negative",
			locus: 99,
			fn:    []*vcf.Variant{call("chr1", 100, "G", "C", "1/1")},
			fp:    []*vcf.Variant{call("chr1", 100, "GA", "G", "1/1")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := rescueAt(t, ref, "chr1", tt.locus, tt.fn, tt.fp, tt.tp)
			require.NoError(t, err)
			assert.False(t, res.Rescued)
		})
	}
}

func TestRescue_DifferentSequences(t *testing.T) {
	res, err := rescueAt(t, testdataRef(t), "chr2", 2,
		[]*vcf.Variant{call("chr2", 2, "TGC", "TAT", "1/1")},
		[]*vcf.Variant{call("chr2", 3, "G", "C", "1/1"), call("chr2", 4, "C", "T", "1/1")},
		nil)
	require.NoError(t, err)
	assert.False(t, res.Rescued)
}

func TestRescue_ReferenceMismatchIsSkipped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := NewRescuer(testdataRef(t), DefaultWindow)
	r.SetLogger(zap.New(core))

	fn := chromOf(t, "chr2", call("chr2", 2, "TGC", "TAT", "1/1"))
	fp := chromOf(t, "chr2", call("chr2", 3, "A", "C", "1/1"), call("chr2", 4, "C", "T", "1/1"))
	res, err := r.Rescue(2, fn, fp, chromOf(t, "chr2"))
	require.NoError(t, err)
	assert.False(t, res.Rescued)
	assert.Equal(t, 1, logs.FilterMessage("rescue abandoned").Len())
}

func TestRescue_InvariantBreach(t *testing.T) {
	// Two overlapping true positives cannot both be spliced in.
	res, err := rescueAt(t, testdataRef(t), "chr2", 1,
		[]*vcf.Variant{call("chr2", 1, "A", "G", "1/1")},
		[]*vcf.Variant{call("chr2", 7, "AT", "A", "1/1")},
		[]*vcf.Variant{call("chr2", 3, "GCC", "G", "1/1"), call("chr2", 4, "C", "G", "0/1")})
	assert.False(t, res.Rescued)

	var inv *InvariantError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, int64(1), inv.Locus)
	assert.Equal(t, "chr2", inv.Window.Chrom)
	assert.Len(t, inv.Truth, 1)
	assert.Contains(t, err.Error(), "starts before splice offset")
}

func TestRescue_GenotypeAware(t *testing.T) {
	ref := testdataRef(t)
	fn := []*vcf.Variant{call("chr2", 2, "TGC", "TAT", "0/1")}
	fp := []*vcf.Variant{call("chr2", 3, "G", "A", "1/1"), call("chr2", 4, "C", "T", "1/1")}

	r := NewRescuer(ref, DefaultWindow)
	res, err := r.Rescue(2, chromOf(t, "chr2", fn...), chromOf(t, "chr2", fp...), chromOf(t, "chr2"))
	require.NoError(t, err)
	assert.True(t, res.Rescued)

	r.GenotypeAware = true
	res, err = r.Rescue(2, chromOf(t, "chr2", fn...), chromOf(t, "chr2", fp...), chromOf(t, "chr2"))
	require.NoError(t, err)
	assert.False(t, res.Rescued)
}
