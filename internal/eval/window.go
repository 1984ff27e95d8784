package eval

import (
	"fmt"

	"github.com/inodb/vibe-bench/internal/variant"
)

// Window is a rescue interval [Low, High) on Chrom, 1-based.
type Window struct {
	Chrom     string
	Low, High int64
}

// Size returns High-Low.
func (w Window) Size() int64 { return w.High - w.Low }

func (w Window) String() string {
	return fmt.Sprintf("%s:[%d,%d)", w.Chrom, w.Low, w.High)
}

// choppedBound looks for variants of c whose span touches bound and returns
// the bound they force: the smallest start when extending left, the largest
// end when extending right. The position index is walked backwards from
// bound until a variant lies more than lookback bases behind it.
func choppedBound(c *variant.ChromVariants, bound int64, right bool, lookback int64) (int64, bool) {
	locs := c.Locations()
	var (
		out   int64
		found bool
	)
	for i := c.LastAtOrBefore(bound); i >= 0; i-- {
		v, _ := c.At(locs[i])
		if v.Overlaps(bound) {
			edge := v.Pos
			if right {
				edge = v.End()
			}
			if !found || (right && edge > out) || (!right && edge < out) {
				out, found = edge, true
			}
		}
		if bound-v.Pos > lookback {
			break
		}
	}
	return out, found
}

// enlargeBounds widens [low, high) so that no variant of c is cut by it. A
// variant ending exactly at high pushes high one base further.
func enlargeBounds(c *variant.ChromVariants, low, high, lookback int64) (int64, int64) {
	if start, ok := choppedBound(c, low, false, lookback); ok {
		low = start
	}
	if end, ok := choppedBound(c, high-1, true, lookback); ok {
		switch {
		case high == end:
			high++
		case high < end:
			high = end
		}
	}
	return low, high
}

// window computes the rescue window around locus: [locus-size, locus+size)
// widened against every collection until nothing changes. Widening stops
// early once the window exceeds limit. Low never drops below 1.
func window(chrom string, locus, size, lookback, limit int64, sets ...*variant.ChromVariants) Window {
	low, high := locus-size, locus+size
	for {
		prevLow, prevHigh := low, high
		for _, s := range sets {
			low, high = enlargeBounds(s, low, high, lookback)
		}
		if (low == prevLow && high == prevHigh) || high-low > limit {
			break
		}
	}
	if low < 1 {
		low = 1
	}
	return Window{Chrom: chrom, Low: low, High: high}
}
