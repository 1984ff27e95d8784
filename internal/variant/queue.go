package variant

// RangeAndFilter returns the non-SV variants with positions in [min, max).
// When locus itself is in range, variants whose deleted bases cover locus or
// locus+maxLoss(locus) are dropped so only candidates independent of the
// locus variant remain.
func (c *ChromVariants) RangeAndFilter(min, max, locus int64) []*Variant {
	locs := c.RangeQuery(min, max)
	inWindow := false
	vs := make([]*Variant, 0, len(locs))
	for _, p := range locs {
		if p == locus {
			inWindow = true
		}
		if v := c.all[p]; !v.Type.IsSV() {
			vs = append(vs, v)
		}
	}
	if !inWindow {
		return vs
	}

	// Only the locus variant's losses are used here, so an insertion at the
	// locus excludes just the variants covering the locus base itself.
	far := locus + int64(c.all[locus].MaxLoss())
	kept := vs[:0]
	for _, v := range vs {
		if v.Pos == locus || !(v.OverlapsAllele(locus) || v.OverlapsAllele(far)) {
			kept = append(kept, v)
		}
	}
	return kept
}

// OverlapClusters groups position-sorted variants into runs where each next
// variant starts inside the reference span of some member of the current run.
func OverlapClusters(vs []*Variant) [][]*Variant {
	var clusters [][]*Variant
	for _, v := range vs {
		if n := len(clusters); n > 0 && anyStrictlyOverlaps(clusters[n-1], v.Pos) {
			clusters[n-1] = append(clusters[n-1], v)
			continue
		}
		clusters = append(clusters, []*Variant{v})
	}
	return clusters
}

func anyStrictlyOverlaps(vs []*Variant, pos int64) bool {
	for _, v := range vs {
		if v.StrictlyOverlaps(pos) {
			return true
		}
	}
	return false
}

// EnumerateQueues lists every way of picking one variant per cluster such
// that no pick starts inside the span of an earlier pick. Choices that would
// conflict are skipped, so a cluster may end a branch early, and such a
// branch yields no queue. Enumeration stops once more than limit queues have
// been produced; the second result is false in that case.
func EnumerateQueues(clusters [][]*Variant, limit int) ([][]*Variant, bool) {
	if len(clusters) == 0 {
		return nil, true
	}

	// The product of cluster sizes bounds the number of queues. When it is
	// within limit no early exit is needed.
	bound := 1
	for _, cl := range clusters {
		bound *= len(cl)
		if bound > limit {
			break
		}
	}
	capped := bound > limit

	var queues [][]*Variant
	// next[d] is the index of the next choice to try in cluster d.
	next := make([]int, len(clusters))
	path := make([]*Variant, 0, len(clusters))
	depth := 0
	for depth >= 0 {
		if depth == len(clusters) {
			queues = append(queues, append([]*Variant(nil), path...))
			if capped && len(queues) > limit {
				return queues, false
			}
			depth--
			path = path[:len(path)-1]
			continue
		}

		cl := clusters[depth]
		advanced := false
		for next[depth] < len(cl) {
			choice := cl[next[depth]]
			next[depth]++
			if anyStrictlyOverlaps(path, choice.Pos) {
				continue
			}
			path = append(path, choice)
			depth++
			if depth < len(clusters) {
				next[depth] = 0
			}
			advanced = true
			break
		}
		if advanced {
			continue
		}
		next[depth] = 0
		depth--
		if depth >= 0 {
			path = path[:len(path)-1]
		}
	}
	return queues, true
}

// VariantQueues returns the candidate queues for a rescue window: the
// filtered window contents split into overlap clusters and expanded into
// non-overlapping one-per-cluster selections. ok is false when more than
// limit queues exist.
func (c *ChromVariants) VariantQueues(min, max, locus int64, limit int) (queues [][]*Variant, ok bool) {
	vs := c.RangeAndFilter(min, max, locus)
	if len(vs) == 0 {
		return nil, true
	}
	return EnumerateQueues(OverlapClusters(vs), limit)
}
