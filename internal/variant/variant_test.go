package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mk(pos int64, ref string, alts ...string) *Variant {
	return &Variant{Pos: pos, Ref: ref, Alts: alts, Type: Classify(ref, alts, DefaultMaxIndelLen), Genotype: HomVar}
}

func TestVariant_GainsLosses(t *testing.T) {
	v := mk(10, "ACG", "A", "ACGTT")
	assert.Equal(t, []int{-2, 2}, v.Gains())
	assert.Equal(t, []int{2, 0}, v.Losses())
	assert.Equal(t, 2, v.MaxLoss())
	assert.Equal(t, int64(13), v.End())
}

func TestVariant_Overlaps(t *testing.T) {
	v := mk(10, "ACG", "A")
	assert.False(t, v.Overlaps(9))
	assert.True(t, v.Overlaps(10))
	assert.True(t, v.Overlaps(13))
	assert.False(t, v.Overlaps(14))

	assert.True(t, v.StrictlyOverlaps(12))
	assert.False(t, v.StrictlyOverlaps(13))
	assert.False(t, v.StrictlyOverlaps(9))
}

func TestVariant_OverlapsAllele(t *testing.T) {
	del := mk(10, "ACG", "A")
	assert.True(t, del.OverlapsAllele(10))
	assert.True(t, del.OverlapsAllele(12))
	assert.False(t, del.OverlapsAllele(13))
	assert.False(t, del.OverlapsAllele(9))

	ins := mk(10, "A", "ACGT")
	assert.True(t, ins.OverlapsAllele(10))
	assert.False(t, ins.OverlapsAllele(11))
}

func TestVariant_StrictlyOverlapsVariant(t *testing.T) {
	del := mk(7, "AAAAAAAA", "A")
	assert.True(t, del.StrictlyOverlapsVariant(mk(10, "A", "T")))
	assert.True(t, mk(10, "A", "T").StrictlyOverlapsVariant(del))
	assert.False(t, del.StrictlyOverlapsVariant(mk(2, "A", "T")))
	assert.False(t, del.StrictlyOverlapsVariant(mk(15, "A", "T")))
	assert.True(t, del.StrictlyOverlapsVariant(mk(14, "A", "T")))
}

func TestVariant_AltSetEqual(t *testing.T) {
	assert.True(t, mk(1, "A", "T", "G").AltSetEqual(mk(1, "A", "G", "T")))
	assert.False(t, mk(1, "A", "T").AltSetEqual(mk(1, "A", "T", "G")))
	assert.False(t, mk(1, "A", "T", "G").AltSetEqual(mk(1, "A", "T")))
	assert.True(t, mk(1, "A", "T", "T").AltSetEqual(mk(1, "A", "T")))
}

func TestVariant_String(t *testing.T) {
	assert.Equal(t, "5 AT/A INDEL_DEL HOM_VAR", mk(5, "AT", "A").String())
	assert.Equal(t, "5 A/. SNP HOM_VAR", (&Variant{Pos: 5, Ref: "A", Genotype: HomVar}).String())
}
