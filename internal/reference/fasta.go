package reference

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// LoadFASTA reads a whole FASTA file into memory. Gzipped files are
// recognized by their .gz suffix.
func LoadFASTA(path string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FASTA file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return ParseFASTA(reader)
}

// ParseFASTA reads FASTA records from r. The contig name is the header up
// to the first whitespace.
func ParseFASTA(r io.Reader) (*Memory, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	seqs := make(map[string]string)
	var names []string
	var current string
	var seq strings.Builder

	flush := func() error {
		if current == "" {
			return nil
		}
		if _, dup := seqs[current]; dup {
			return fmt.Errorf("duplicate FASTA record %q", current)
		}
		seqs[current] = seq.String()
		names = append(names, current)
		return nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, ">") {
			if err := flush(); err != nil {
				return nil, err
			}
			current = contigName(line)
			seq.Reset()
			continue
		}
		seq.WriteString(strings.TrimSpace(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan FASTA: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return NewMemory(names, seqs), nil
}

func contigName(header string) string {
	header = strings.TrimPrefix(header, ">")
	if fields := strings.Fields(header); len(fields) > 0 {
		return fields[0]
	}
	return header
}
