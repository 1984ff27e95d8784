package eval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-bench/internal/normalize"
	"github.com/inodb/vibe-bench/internal/reference"
	"github.com/inodb/vibe-bench/internal/variant"
	"github.com/inodb/vibe-bench/internal/vcf"
)

type lineSink struct {
	lines []AnnotatedLine
}

func (s *lineSink) WriteLines(lines []AnnotatedLine) error {
	s.lines = append(s.lines, lines...)
	return nil
}

type failingStream struct{}

func (failingStream) Next() (*vcf.ContigGroup, error) {
	return nil, errors.New("boom")
}

func parserStream(t *testing.T, name string) ContigStream {
	t.Helper()
	p, err := vcf.NewParser(findTestFile(t, name))
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return vcf.NewContigReader(p)
}

func TestDriver_MatchesSinglePass(t *testing.T) {
	ref := testdataRef(t)
	e := NewEvaluator(DefaultOptions(), NewRescuer(ref, DefaultWindow))

	d := NewDriver(e)
	d.Order = reference.NewOrder(ref.ContigNames())
	streamed, err := d.Run(context.Background(),
		parserStream(t, "truth.vcf"), parserStream(t, "pred.vcf"), parserStream(t, "known_fp.vcf"))
	require.NoError(t, err)

	single, err := e.EvaluateAll(loadGroups(t, "truth.vcf"), loadGroups(t, "pred.vcf"), loadGroups(t, "known_fp.vcf"))
	require.NoError(t, err)
	assert.Equal(t, single, streamed)
}

func TestDriver_Totals(t *testing.T) {
	ref := testdataRef(t)
	d := NewDriver(NewEvaluator(DefaultOptions(), NewRescuer(ref, DefaultWindow)))
	d.Order = reference.NewOrder(ref.ContigNames())

	st, err := d.Run(context.Background(), parserStream(t, "truth.vcf"), parserStream(t, "pred.vcf"), nil)
	require.NoError(t, err)

	snp := st.Get(variant.SNP)
	assert.Equal(t, 4, snp.NumTrue)
	assert.Equal(t, 4, snp.NumPred)
	assert.Equal(t, 2, snp.TruePositives)
	assert.Equal(t, 2, snp.FalsePositives)
	assert.Equal(t, 2, snp.FalseNegatives)
	assert.Equal(t, 1, snp.AlleleMismatch)
	assert.Equal(t, 1, snp.Rescued)

	del := st.Get(variant.IndelDel)
	assert.Equal(t, 2, del.TruePositives)
	assert.Equal(t, 2, del.NumPred)

	oth := st.Get(variant.IndelOth)
	assert.Equal(t, 1, oth.NumTrue)
	assert.Equal(t, 1, oth.NumPred)
	assert.Equal(t, 1, oth.TruePositives)
	assert.Equal(t, 1, oth.Rescued)
}

func TestDriver_WithoutRescue(t *testing.T) {
	d := NewDriver(NewEvaluator(DefaultOptions(), nil))
	st, err := d.Run(context.Background(), parserStream(t, "truth.vcf"), parserStream(t, "pred.vcf"), nil)
	require.NoError(t, err)

	snp := st.Get(variant.SNP)
	assert.Equal(t, 1, snp.TruePositives)
	assert.Equal(t, 5, snp.FalsePositives)
	assert.Equal(t, 3, snp.FalseNegatives)
	assert.Equal(t, 6, snp.NumPred)

	del := st.Get(variant.IndelDel)
	assert.Equal(t, 1, del.TruePositives)
	assert.Equal(t, 1, del.FalsePositives)
	assert.Equal(t, 1, del.FalseNegatives)
	assert.Equal(t, 1, st.Get(variant.IndelOth).FalseNegatives)
}

func TestDriver_ContigOnlyInOneStream(t *testing.T) {
	d := NewDriver(NewEvaluator(DefaultOptions(), nil))
	d.Order = reference.NewOrder([]string{"chr1", "chr2", "chr3"})

	truth := vcf.NewSliceGroups(
		&vcf.ContigGroup{Chrom: "chr1", Records: []*vcf.Variant{call("chr1", 5, "A", "T", "0/1")}},
		&vcf.ContigGroup{Chrom: "chr3", Records: []*vcf.Variant{call("chr3", 5, "A", "T", "0/1")}},
	)
	pred := vcf.NewSliceGroups(
		&vcf.ContigGroup{Chrom: "chr2", Records: []*vcf.Variant{call("chr2", 5, "A", "T", "0/1")}},
		&vcf.ContigGroup{Chrom: "chr3", Records: []*vcf.Variant{call("chr3", 5, "A", "T", "0/1")}},
	)
	st, err := d.Run(context.Background(), truth, pred, nil)
	require.NoError(t, err)

	snp := st.Get(variant.SNP)
	assert.Equal(t, 1, snp.TruePositives)
	assert.Equal(t, 1, snp.FalsePositives)
	assert.Equal(t, 1, snp.FalseNegatives)
}

func TestDriver_RejectsOutOfOrderContigs(t *testing.T) {
	d := NewDriver(NewEvaluator(DefaultOptions(), nil))
	d.Order = reference.NewOrder([]string{"chr1", "chr2"})

	truth := vcf.NewSliceGroups(
		&vcf.ContigGroup{Chrom: "chr2", Records: []*vcf.Variant{call("chr2", 5, "A", "T", "0/1")}},
		&vcf.ContigGroup{Chrom: "chr1", Records: []*vcf.Variant{call("chr1", 5, "A", "T", "0/1")}},
	)
	_, err := d.Run(context.Background(), truth, vcf.NewSliceGroups(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in reference order")
}

func TestDriver_RejectsSplitContigWithoutOrder(t *testing.T) {
	d := NewDriver(NewEvaluator(DefaultOptions(), nil))

	// chr2 before chr10 is not name order, so chr10 is reached twice.
	truth := vcf.NewSliceGroups(
		&vcf.ContigGroup{Chrom: "chr2", Records: []*vcf.Variant{call("chr2", 5, "A", "T", "0/1")}},
		&vcf.ContigGroup{Chrom: "chr10", Records: []*vcf.Variant{call("chr10", 5, "A", "T", "0/1")}},
	)
	pred := vcf.NewSliceGroups(
		&vcf.ContigGroup{Chrom: "chr10", Records: []*vcf.Variant{call("chr10", 5, "A", "T", "0/1")}},
	)
	_, err := d.Run(context.Background(), truth, pred, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contig chr10 seen again")
}

func TestDriver_Normalizes(t *testing.T) {
	ref := reference.NewMemory([]string{"c"}, map[string]string{"c": "GCATTTTGC"})
	truth := func() ContigStream {
		return vcf.NewSliceGroups(&vcf.ContigGroup{Chrom: "c", Records: []*vcf.Variant{call("c", 6, "TT", "T", "0/1")}})
	}
	pred := func() ContigStream {
		return vcf.NewSliceGroups(&vcf.ContigGroup{Chrom: "c", Records: []*vcf.Variant{call("c", 3, "AT", "A", "0/1")}})
	}

	d := NewDriver(NewEvaluator(DefaultOptions(), nil))
	st, err := d.Run(context.Background(), truth(), pred(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Get(variant.IndelDel).FalseNegatives)

	d.Normalizer = normalize.New(ref, 0)
	st, err = d.Run(context.Background(), truth(), pred(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Get(variant.IndelDel).TruePositives)
	assert.Zero(t, st.Get(variant.IndelDel).FalseNegatives)
	assert.Equal(t, 1, d.Normalizer.Stats().Shifted)
}

func TestDriver_WritesAnnotated(t *testing.T) {
	ref := testdataRef(t)
	d := NewDriver(NewEvaluator(DefaultOptions(), NewRescuer(ref, DefaultWindow)))
	d.Order = reference.NewOrder(ref.ContigNames())
	sink := &lineSink{}
	d.Annotated = sink

	_, err := d.Run(context.Background(), parserStream(t, "truth.vcf"), parserStream(t, "pred.vcf"), nil)
	require.NoError(t, err)

	require.NotEmpty(t, sink.lines)
	assert.Equal(t, "chr1\t5\t.\tA\tT\t.\t.\tsource_file=1;smash_type=TP", sink.lines[0].Text)
	last := sink.lines[len(sink.lines)-1]
	assert.Equal(t, "chr4\t8\t.\tC\tT\t.\t.\tsource_file=1;smash_type=TP", last.Text)
}

func TestDriver_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDriver(NewEvaluator(DefaultOptions(), nil))
	_, err := d.Run(ctx, parserStream(t, "truth.vcf"), parserStream(t, "pred.vcf"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDriver_StreamError(t *testing.T) {
	d := NewDriver(NewEvaluator(DefaultOptions(), nil))
	_, err := d.Run(context.Background(), failingStream{}, vcf.NewSliceGroups(), nil)
	assert.EqualError(t, err, "boom")
}
