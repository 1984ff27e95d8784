package normalize

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-bench/internal/vcf"
)

var errNotShiftable = errors.New("alleles no longer share first and last base")

// resolveCollisions keeps one record per position. Of the records at a
// position, the first one that was not shifted stays put and further
// unshifted records with the same alleles are duplicates. When all were
// shifted the first stays. The remaining records, unshifted ones first,
// are slid right one after another until each clears the one placed
// before it; a record that cannot slide is dropped.
func (n *Normalizer) resolveCollisions(chrom string, recs []normed) ([]*vcf.Variant, error) {
	slices.SortStableFunc(recs, func(a, b normed) int { return cmpPos(a.rec, b.rec) })

	out := make([]*vcf.Variant, 0, len(recs))
	for i := 0; i < len(recs); {
		j := i + 1
		for j < len(recs) && recs[j].rec.Pos == recs[i].rec.Pos {
			j++
		}
		group := recs[i:j]
		i = j
		if len(group) == 1 {
			out = append(out, group[0].rec)
			continue
		}

		var unshifted, shifted []*vcf.Variant
		for _, g := range group {
			if g.shifted {
				shifted = append(shifted, g.rec)
			} else {
				unshifted = append(unshifted, g.rec)
			}
		}

		var anchor *vcf.Variant
		if len(unshifted) > 0 {
			anchor = unshifted[0]
			kept := []*vcf.Variant{anchor}
			var movable []*vcf.Variant
			for _, d := range unshifted[1:] {
				if slices.ContainsFunc(kept, func(k *vcf.Variant) bool { return k.Ref == d.Ref && k.Alt == d.Alt }) {
					n.stats.DuplicateDiscards++
					n.logger.Warn("duplicate record discarded",
						zap.String("chrom", chrom), zap.Int64("pos", d.Pos),
						zap.String("ref", d.Ref), zap.String("alt", d.Alt))
					continue
				}
				kept = append(kept, d)
				movable = append(movable, d)
			}
			shifted = append(movable, shifted...)
		} else {
			anchor, shifted = shifted[0], shifted[1:]
		}

		for _, s := range shifted {
			moved, err := n.shiftPast(chrom, anchor, s)
			if errors.Is(err, errNotShiftable) {
				n.stats.CollisionDiscards++
				n.logger.Warn("colliding record discarded",
					zap.String("chrom", chrom), zap.Int64("pos", s.Pos),
					zap.String("ref", s.Ref), zap.String("alt", s.Alt))
				continue
			}
			if err != nil {
				return nil, err
			}
			n.stats.CollisionShifts++
			out = append(out, anchor)
			anchor = moved
		}
		out = append(out, anchor)
	}

	slices.SortStableFunc(out, cmpPos)
	return out, nil
}

func cmpPos(a, b *vcf.Variant) int {
	switch {
	case a.Pos < b.Pos:
		return -1
	case a.Pos > b.Pos:
		return 1
	}
	return 0
}

// shiftPast slides two right one base at a time until it starts at or
// after the end of one's reference span. Each step drops the leading base
// of every allele and appends the next reference base.
func (n *Normalizer) shiftPast(chrom string, one, two *vcf.Variant) (*vcf.Variant, error) {
	onePos, twoPos := one.Pos-1, two.Pos-1
	oneEnd := onePos + int64(len(one.Ref))
	ref := two.Ref
	alts := two.Alts()

	for twoPos < oneEnd {
		if !sameFirstBase(ref, alts) {
			return nil, fmt.Errorf("%s:%d: %w", chrom, two.Pos, errNotShiftable)
		}
		twoPos++
		right := twoPos + int64(len(ref)) - 1
		next, err := n.ref.Ref(chrom, right, right+1)
		if err != nil {
			return nil, err
		}
		if len(next) != 1 {
			return nil, fmt.Errorf("%s:%d: %w", chrom, two.Pos, errNotShiftable)
		}
		ref = ref[1:] + next
		for i, a := range alts {
			alts[i] = a[1:] + next
		}
		if !sameFirstBase(ref, alts) || !sameLastBase(ref, alts) {
			return nil, fmt.Errorf("%s:%d: %w", chrom, two.Pos, errNotShiftable)
		}
	}

	out := two.Clone()
	out.Pos = twoPos + 1
	out.Ref = ref
	out.Alt = strings.Join(alts, ",")
	return out, nil
}
