// Package reference provides reference sequence access and contig ordering.
package reference

import (
	"fmt"
	"strings"
)

// Reference returns reference bases for a 0-based half-open interval,
// upper-cased. Ranges reaching past either end of the contig are clipped.
type Reference interface {
	Ref(chrom string, start, end int64) (string, error)
}

// UnknownContigError reports a lookup on a contig the reference lacks.
type UnknownContigError struct {
	Chrom string
}

func (e *UnknownContigError) Error() string {
	return fmt.Sprintf("reference has no contig %q", e.Chrom)
}

// clip restricts [start, end) to [0, length).
func clip(start, end, length int64) (int64, int64) {
	if end > length {
		end = length
	}
	if start < 0 {
		start = 0
	}
	if start > end {
		start = end
	}
	return start, end
}

// Memory is a reference held entirely in memory.
type Memory struct {
	seqs  map[string]string
	names []string
}

// NewMemory creates a reference from contig sequences. Names are kept in
// the given order for ContigNames.
func NewMemory(names []string, seqs map[string]string) *Memory {
	m := &Memory{seqs: make(map[string]string, len(seqs))}
	for _, n := range names {
		if s, ok := seqs[n]; ok {
			m.seqs[n] = strings.ToUpper(s)
			m.names = append(m.names, n)
		}
	}
	return m
}

// Ref implements Reference.
func (m *Memory) Ref(chrom string, start, end int64) (string, error) {
	seq, ok := m.seqs[chrom]
	if !ok {
		return "", &UnknownContigError{Chrom: chrom}
	}
	start, end = clip(start, end, int64(len(seq)))
	return seq[start:end], nil
}

// Length returns the contig length, or -1 if unknown.
func (m *Memory) Length(chrom string) int64 {
	seq, ok := m.seqs[chrom]
	if !ok {
		return -1
	}
	return int64(len(seq))
}

// ContigNames returns contig names in file order.
func (m *Memory) ContigNames() []string { return m.names }
