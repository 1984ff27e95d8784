package vcf

import "fmt"

// ContigGroup holds the consecutive records of one contig.
type ContigGroup struct {
	Chrom   string
	Records []*Variant
}

// ContigReader groups the records of a parser into per-contig runs.
// Input must be grouped by contig: a contig that reappears after a
// different contig is reported as a ParseError.
type ContigReader struct {
	parser  VariantParser
	pending *Variant
	seen    map[string]bool
	done    bool
}

// NewContigReader wraps a parser.
func NewContigReader(p VariantParser) *ContigReader {
	return &ContigReader{
		parser: p,
		seen:   make(map[string]bool),
	}
}

// Next returns the next contig group, or nil when the input is exhausted.
func (r *ContigReader) Next() (*ContigGroup, error) {
	if r.done {
		return nil, nil
	}

	first := r.pending
	r.pending = nil
	if first == nil {
		v, err := r.parser.Next()
		if err != nil {
			return nil, err
		}
		if v == nil {
			r.done = true
			return nil, nil
		}
		first = v
	}

	if r.seen[first.Chrom] {
		return nil, &ParseError{
			Line:    r.parser.LineNumber(),
			Message: fmt.Sprintf("contig %s appears in more than one block; input must be grouped by contig", first.Chrom),
		}
	}
	r.seen[first.Chrom] = true

	g := &ContigGroup{Chrom: first.Chrom, Records: []*Variant{first}}
	for {
		v, err := r.parser.Next()
		if err != nil {
			return nil, err
		}
		if v == nil {
			r.done = true
			return g, nil
		}
		if v.Chrom != g.Chrom {
			r.pending = v
			return g, nil
		}
		g.Records = append(g.Records, v)
	}
}

// SliceGroups serves a fixed list of groups, mainly for in-memory evaluation.
type SliceGroups struct {
	groups []*ContigGroup
	i      int
}

// NewSliceGroups creates a group stream over already grouped records.
func NewSliceGroups(groups ...*ContigGroup) *SliceGroups {
	return &SliceGroups{groups: groups}
}

// Next returns the next group, or nil at the end.
func (s *SliceGroups) Next() (*ContigGroup, error) {
	if s.i >= len(s.groups) {
		return nil, nil
	}
	g := s.groups[s.i]
	s.i++
	return g, nil
}
