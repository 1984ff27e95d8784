package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/inodb/vibe-bench/internal/maf"
	"github.com/inodb/vibe-bench/internal/reference"
	"github.com/inodb/vibe-bench/internal/vcf"
)

// callset is an opened input file and the contig order its header
// declares, if any.
type callset struct {
	parser  vcf.VariantParser
	contigs []string
}

// openCallset opens a VCF or MAF file. ref anchors MAF indels and may be nil.
func openCallset(path string, ref reference.Reference) (*callset, error) {
	switch detectInputFormat(path) {
	case "maf":
		p, err := maf.NewParser(path, ref)
		if err != nil {
			return nil, err
		}
		return &callset{parser: p}, nil
	default:
		p, err := vcf.NewParser(path)
		if err != nil {
			return nil, err
		}
		return &callset{parser: p, contigs: p.Contigs()}, nil
	}
}

// detectInputFormat detects the input file format based on extension or content.
func detectInputFormat(path string) string {
	lowerPath := strings.ToLower(path)
	lowerPath = strings.TrimSuffix(lowerPath, ".gz")

	if strings.HasSuffix(lowerPath, ".vcf") {
		return "vcf"
	}
	if strings.HasSuffix(lowerPath, ".maf") {
		return "maf"
	}

	// cBioPortal MAF filenames
	baseName := filepath.Base(lowerPath)
	if baseName == "data_mutations.txt" || baseName == "data_mutations_extended.txt" {
		return "maf"
	}

	if path == "-" {
		return "vcf"
	}

	file, err := os.Open(path)
	if err != nil {
		return "vcf"
	}
	defer file.Close()

	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil || n == 0 {
		return "vcf"
	}
	content := string(buf[:n])

	if strings.HasPrefix(content, "##fileformat=VCF") || strings.HasPrefix(content, "#CHROM") {
		return "vcf"
	}
	if strings.Contains(content, maf.ColChromosome) && strings.Contains(content, maf.ColTumorSeqAllele2) {
		return "maf"
	}
	return "vcf"
}

func (c *callset) Close() error {
	if err := c.parser.Close(); err != nil {
		return fmt.Errorf("closing input: %w", err)
	}
	return nil
}
