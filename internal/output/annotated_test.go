package output

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-bench/internal/eval"
	"github.com/inodb/vibe-bench/internal/vcf"
)

var _ eval.AnnotatedSink = (*AnnotatedWriter)(nil)

const wantHeader = "##fileformat=VCFv4.1\n" +
	"##contig=<ID=chr1>\n" +
	`##INFO=<ID=smash_type,Type=String,Description="classify variant as TP,FP,FN,or rescued">` + "\n" +
	`##INFO=<ID=source_file,Type=Integer,Description="variant originally in first or second vcf passed to SMaSH">` + "\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n"

func sampleLines() []eval.AnnotatedLine {
	return []eval.AnnotatedLine{
		{Pos: 5, Text: "chr1\t5\t.\tA\tT\t.\t.\t" + eval.InfoTP},
		{Pos: 9, Text: "chr1\t9\t.\tC\tG\t.\t.\t" + eval.InfoFP},
	}
}

func TestAnnotatedWriter(t *testing.T) {
	var buf bytes.Buffer
	aw := NewAnnotatedWriter(&buf, []string{"##contig=<ID=chr1>"})
	require.NoError(t, aw.WriteLines(sampleLines()))
	require.NoError(t, aw.WriteLines(nil))
	require.NoError(t, aw.Close())

	assert.Equal(t, wantHeader+
		"chr1\t5\t.\tA\tT\t.\t.\tsource_file=1;smash_type=TP\n"+
		"chr1\t9\t.\tC\tG\t.\t.\tsource_file=2;smash_type=FP\n", buf.String())
}

func TestAnnotatedWriter_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	aw := NewAnnotatedWriter(&buf, []string{"##contig=<ID=chr1>"})
	require.NoError(t, aw.Close())
	assert.Equal(t, wantHeader, buf.String())
}

func TestCreateAnnotated_BGZF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.vcf.gz")
	aw, err := CreateAnnotated(path, []string{"##contig=<ID=chr1>"})
	require.NoError(t, err)
	require.NoError(t, aw.WriteLines(sampleLines()))
	require.NoError(t, aw.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(data), wantHeader))
	assert.True(t, strings.HasSuffix(string(data), "source_file=2;smash_type=FP\n"))
}

func TestCreateAnnotated_Plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.vcf")
	aw, err := CreateAnnotated(path, nil)
	require.NoError(t, err)
	require.NoError(t, aw.WriteLines(sampleLines()[:1]))
	require.NoError(t, aw.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "##fileformat=VCFv4.1\n##INFO"))
	assert.True(t, strings.HasSuffix(string(data), "smash_type=TP\n"))
}

func TestAnnotatedWriter_FromDriver(t *testing.T) {
	truth := vcf.NewSliceGroups(&vcf.ContigGroup{Chrom: "chr1", Records: []*vcf.Variant{
		{Chrom: "chr1", Pos: 5, Ref: "A", Alt: "T", Format: "GT", Samples: []string{"0/1"}},
		{Chrom: "chr1", Pos: 20, Ref: "G", Alt: "C", Format: "GT", Samples: []string{"1/1"}},
	}})
	pred := vcf.NewSliceGroups(&vcf.ContigGroup{Chrom: "chr1", Records: []*vcf.Variant{
		{Chrom: "chr1", Pos: 5, Ref: "A", Alt: "T", Format: "GT", Samples: []string{"0/1"}},
		{Chrom: "chr1", Pos: 12, Ref: "C", Alt: "A", Format: "GT", Samples: []string{"0/1"}},
	}})

	var buf bytes.Buffer
	aw := NewAnnotatedWriter(&buf, nil)
	d := eval.NewDriver(eval.NewEvaluator(eval.DefaultOptions(), nil))
	d.Annotated = aw
	_, err := d.Run(context.Background(), truth, pred, nil)
	require.NoError(t, err)
	require.NoError(t, aw.Close())

	body := strings.SplitN(buf.String(), "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n", 2)
	require.Len(t, body, 2)
	assert.Equal(t,
		"chr1\t5\t.\tA\tT\t.\t.\tsource_file=1;smash_type=TP\n"+
			"chr1\t12\t.\tC\tA\t.\t.\tsource_file=2;smash_type=FP\n"+
			"chr1\t20\t.\tG\tC\t.\t.\tsource_file=1;smash_type=FN\n", body[1])
}
