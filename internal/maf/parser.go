// Package maf reads MAF (Mutation Annotation Format) callsets as VCF-shaped
// records so they can be benchmarked like any other callset.
package maf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/inodb/vibe-bench/internal/reference"
	"github.com/inodb/vibe-bench/internal/vcf"
)

// Standard MAF column names
const (
	ColChromosome      = "Chromosome"
	ColStartPosition   = "Start_Position"
	ColReferenceAllele = "Reference_Allele"
	ColTumorSeqAllele1 = "Tumor_Seq_Allele1"
	ColTumorSeqAllele2 = "Tumor_Seq_Allele2"
	ColFilter          = "FILTER"
)

// ColumnIndices holds the indices of the columns the parser reads. Optional
// columns that are absent are -1.
type ColumnIndices struct {
	Chromosome      int
	StartPosition   int
	ReferenceAllele int
	TumorSeqAllele1 int
	TumorSeqAllele2 int
	Filter          int
}

// Parser reads variants from a MAF file. MAF writes indels without an
// anchor base ("-" for the empty allele); the parser prepends one from the
// reference, so a reference is needed for any file that contains indels.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	ref        reference.Reference
	lineNumber int
	columns    ColumnIndices
	headerLine string
}

// NewParser creates a new MAF parser for the given file.
// Supports both plain MAF and gzipped MAF (.maf.gz) files. ref may be nil
// when the file holds no indels.
func NewParser(path string, ref reference.Reference) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin, ref)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open maf file: %w", err)
	}

	p := &Parser{file: file, ref: ref}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read maf header: %w", err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek maf file: %w", err)
	}

	if n == 2 && buf[0] == 0x1f && buf[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = bufio.NewReader(file)
	}

	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader, ref reference.Reference) (*Parser, error) {
	p := &Parser{
		reader: bufio.NewReader(r),
		ref:    ref,
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	return p, nil
}

// parseHeader skips comment lines and reads the column header.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return &ParseError{
					Line:    p.lineNumber,
					Message: "no header line found",
				}
			}
			return fmt.Errorf("read header: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		p.headerLine = line
		return p.parseColumnIndices(line)
	}
}

func (p *Parser) parseColumnIndices(headerLine string) error {
	p.columns = ColumnIndices{-1, -1, -1, -1, -1, -1}

	for i, col := range strings.Split(headerLine, "\t") {
		switch col {
		case ColChromosome:
			p.columns.Chromosome = i
		case ColStartPosition:
			p.columns.StartPosition = i
		case ColReferenceAllele:
			p.columns.ReferenceAllele = i
		case ColTumorSeqAllele1:
			p.columns.TumorSeqAllele1 = i
		case ColTumorSeqAllele2:
			p.columns.TumorSeqAllele2 = i
		case ColFilter:
			p.columns.Filter = i
		}
	}

	required := []struct {
		name string
		idx  int
	}{
		{ColChromosome, p.columns.Chromosome},
		{ColStartPosition, p.columns.StartPosition},
		{ColReferenceAllele, p.columns.ReferenceAllele},
		{ColTumorSeqAllele2, p.columns.TumorSeqAllele2},
	}
	for _, r := range required {
		if r.idx == -1 {
			return &ParseError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("required column '%s' not found in header", r.name),
			}
		}
	}
	return nil
}

// Next reads the next variant from the MAF file. Rows where neither tumor
// allele differs from the reference are skipped.
// Returns nil, nil when there are no more variants.
func (p *Parser) Next() (*vcf.Variant, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read variant line: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		v, err := p.parseLine(line)
		if v == nil && err == nil {
			continue
		}
		return v, err
	}
}

func (p *Parser) parseLine(line string) (*vcf.Variant, error) {
	fields := strings.Split(line, "\t")

	minCols := max(p.columns.Chromosome, p.columns.StartPosition, p.columns.ReferenceAllele,
		p.columns.TumorSeqAllele1, p.columns.TumorSeqAllele2, p.columns.Filter)
	if len(fields) <= minCols {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least %d columns, found %d", minCols+1, len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[p.columns.StartPosition], 10, 64)
	if err != nil || pos < 1 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid position: %s", fields[p.columns.StartPosition]),
		}
	}

	chrom := fields[p.columns.Chromosome]
	ref := allele(fields[p.columns.ReferenceAllele])
	allele1 := ref
	if p.columns.TumorSeqAllele1 >= 0 {
		allele1 = allele(fields[p.columns.TumorSeqAllele1])
	}
	alts, gt := genotype(ref, allele1, allele(fields[p.columns.TumorSeqAllele2]))
	if len(alts) == 0 {
		return nil, nil
	}

	if needsAnchor(ref, alts) {
		if ref != "" {
			// Deletions start at the first deleted base; the anchor precedes it.
			pos--
		}
		base, err := p.anchor(chrom, pos)
		if err != nil {
			return nil, err
		}
		ref = base + ref
		for i, a := range alts {
			alts[i] = base + a
		}
	}

	filter := "PASS"
	if p.columns.Filter >= 0 && fields[p.columns.Filter] != "" {
		filter = fields[p.columns.Filter]
	}

	return &vcf.Variant{
		Chrom:   chrom,
		Pos:     pos,
		ID:      ".",
		Ref:     ref,
		Alt:     strings.Join(alts, ","),
		Qual:    ".",
		Filter:  filter,
		Info:    ".",
		Format:  "GT",
		Samples: []string{gt},
	}, nil
}

// allele maps the MAF empty-allele marker to an empty string.
func allele(s string) string {
	if s == "-" {
		return ""
	}
	return strings.ToUpper(s)
}

// genotype derives the ALT alleles and GT from the two tumor alleles.
func genotype(ref, a1, a2 string) ([]string, string) {
	switch {
	case a1 == ref && a2 == ref:
		return nil, ""
	case a1 == ref:
		return []string{a2}, "0/1"
	case a2 == ref:
		return []string{a1}, "0/1"
	case a1 == a2:
		return []string{a2}, "1/1"
	}
	return []string{a1, a2}, "1/2"
}

func needsAnchor(ref string, alts []string) bool {
	if ref == "" {
		return true
	}
	for _, a := range alts {
		if a == "" {
			return true
		}
	}
	return false
}

// anchor returns the reference base at the 1-based position pos.
func (p *Parser) anchor(chrom string, pos int64) (string, error) {
	if p.ref == nil {
		return "", &ParseError{
			Line:    p.lineNumber,
			Message: "indel needs a reference to add its anchor base",
		}
	}
	if pos < 1 {
		return "", &ParseError{
			Line:    p.lineNumber,
			Message: "deletion at the first base of the contig cannot be anchored",
		}
	}
	base, err := p.ref.Ref(chrom, pos-1, pos)
	if err != nil {
		return "", fmt.Errorf("maf line %d: %w", p.lineNumber, err)
	}
	if base == "" {
		return "", &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("position %d is past the end of %s", pos, chrom),
		}
	}
	return base, nil
}

// Header returns the MAF header line.
func (p *Parser) Header() string {
	return p.headerLine
}

// Columns returns the parsed column indices.
func (p *Parser) Columns() ColumnIndices {
	return p.columns
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error during MAF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("maf parse error at line %d: %s", e.Line, e.Message)
}
