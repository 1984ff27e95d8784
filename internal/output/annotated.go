package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/hts/bgzf"

	"github.com/inodb/vibe-bench/internal/eval"
)

var annotatedHeader = []string{
	"##fileformat=VCFv4.1",
	`##INFO=<ID=smash_type,Type=String,Description="classify variant as TP,FP,FN,or rescued">`,
	`##INFO=<ID=source_file,Type=Integer,Description="variant originally in first or second vcf passed to SMaSH">`,
}

const annotatedColumns = "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO"

// AnnotatedWriter writes the annotated VCF, one contig of classified calls
// at a time. The header goes out before the first body line.
type AnnotatedWriter struct {
	w           *bufio.Writer
	extra       []string
	closers     []io.Closer
	wroteHeader bool
}

// NewAnnotatedWriter writes to w. extra header lines, for example
// ##contig lines, follow the fileformat line.
func NewAnnotatedWriter(w io.Writer, extra []string) *AnnotatedWriter {
	return &AnnotatedWriter{w: bufio.NewWriter(w), extra: extra}
}

// CreateAnnotated creates path, BGZF-compressed when it ends in ".gz".
func CreateAnnotated(path string, extra []string) (*AnnotatedWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create annotated VCF: %w", err)
	}
	if !strings.HasSuffix(path, ".gz") {
		aw := NewAnnotatedWriter(f, extra)
		aw.closers = []io.Closer{f}
		return aw, nil
	}
	bg := bgzf.NewWriter(f, 1)
	aw := NewAnnotatedWriter(bg, extra)
	aw.closers = []io.Closer{bg, f}
	return aw, nil
}

// WriteHeader writes the header if it has not been written yet.
func (a *AnnotatedWriter) WriteHeader() error {
	if a.wroteHeader {
		return nil
	}
	a.wroteHeader = true

	lines := make([]string, 0, len(annotatedHeader)+len(a.extra)+1)
	lines = append(lines, annotatedHeader[0])
	lines = append(lines, a.extra...)
	lines = append(lines, annotatedHeader[1:]...)
	lines = append(lines, annotatedColumns)
	for _, l := range lines {
		if _, err := a.w.WriteString(l + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteLines writes one contig's annotated lines.
func (a *AnnotatedWriter) WriteLines(lines []eval.AnnotatedLine) error {
	if err := a.WriteHeader(); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := a.w.WriteString(l.Text + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Close writes the header if nothing else was written, flushes, and closes
// any underlying compressor and file.
func (a *AnnotatedWriter) Close() error {
	err := a.WriteHeader()
	if ferr := a.w.Flush(); err == nil {
		err = ferr
	}
	for _, c := range a.closers {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
