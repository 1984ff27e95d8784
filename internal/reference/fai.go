package reference

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/biogo/hts/fai"
)

// Indexed reads bases on demand from a FASTA file using its faidx index.
type Indexed struct {
	f    *os.File
	file *fai.File
	idx  fai.Index
}

// Open opens a FASTA file and its index at path+".fai". When the index is
// missing it is built in memory by scanning the FASTA once.
func Open(path string) (*Indexed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference: %w", err)
	}
	idx, err := loadIndex(path, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Indexed{f: f, file: fai.NewFile(f, idx), idx: idx}, nil
}

func loadIndex(path string, f *os.File) (fai.Index, error) {
	ff, err := os.Open(path + ".fai")
	switch {
	case err == nil:
		defer ff.Close()
		idx, err := fai.ReadFrom(ff)
		if err != nil {
			return nil, fmt.Errorf("read %s.fai: %w", path, err)
		}
		return idx, nil
	case errors.Is(err, fs.ErrNotExist):
		idx, err := fai.NewIndex(f)
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", path, err)
		}
		return shortNames(idx), nil
	default:
		return nil, fmt.Errorf("open reference index: %w", err)
	}
}

// shortNames keys records by the header's first word, as samtools does.
func shortNames(idx fai.Index) fai.Index {
	out := make(fai.Index, len(idx))
	for name, rec := range idx {
		if fields := strings.Fields(name); len(fields) > 0 {
			name = fields[0]
		}
		rec.Name = name
		out[name] = rec
	}
	return out
}

// Ref implements Reference.
func (x *Indexed) Ref(chrom string, start, end int64) (string, error) {
	rec, ok := x.idx[chrom]
	if !ok {
		return "", &UnknownContigError{Chrom: chrom}
	}
	start, end = clip(start, end, int64(rec.Length))
	seq, err := x.file.SeqRange(chrom, int(start), int(end))
	if err != nil {
		return "", fmt.Errorf("read %s:%d-%d: %w", chrom, start, end, err)
	}
	b, err := io.ReadAll(seq)
	if err != nil {
		return "", fmt.Errorf("read %s:%d-%d: %w", chrom, start, end, err)
	}
	return strings.ToUpper(string(b)), nil
}

// Length returns the contig length, or -1 if unknown.
func (x *Indexed) Length(chrom string) int64 {
	rec, ok := x.idx[chrom]
	if !ok {
		return -1
	}
	return int64(rec.Length)
}

// ContigNames returns contig names in file order.
func (x *Indexed) ContigNames() []string {
	recs := make([]fai.Record, 0, len(x.idx))
	for _, r := range x.idx {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Start < recs[j].Start })
	names := make([]string, len(recs))
	for i, r := range recs {
		names[i] = r.Name
	}
	return names
}

// Close closes the underlying FASTA file.
func (x *Indexed) Close() error {
	return x.f.Close()
}
