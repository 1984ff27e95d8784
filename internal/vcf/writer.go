package vcf

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Writer writes VCF records.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a new VCF writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteHeader writes header lines verbatim, one per line.
func (vw *Writer) WriteHeader(lines []string) error {
	for _, line := range lines {
		if _, err := vw.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Write writes a single record.
func (vw *Writer) Write(v *Variant) error {
	fields := []string{
		v.Chrom,
		strconv.FormatInt(v.Pos, 10),
		orDot(v.ID),
		v.Ref,
		orDot(v.Alt),
		orDot(v.Qual),
		orDot(v.Filter),
		orDot(v.Info),
	}
	if v.Format != "" {
		fields = append(fields, v.Format)
		fields = append(fields, v.Samples...)
	}
	_, err := vw.w.WriteString(strings.Join(fields, "\t") + "\n")
	return err
}

// Flush flushes buffered output.
func (vw *Writer) Flush() error {
	return vw.w.Flush()
}

func orDot(s string) string {
	if s == "" {
		return "."
	}
	return s
}
