// Package variant models called variants, classifies them, and stores them
// per chromosome with the range queries the evaluation engine relies on.
package variant

// Type is the class assigned to a variant at ingestion.
type Type uint8

const (
	SNP Type = iota
	IndelDel
	IndelIns
	IndelInv
	IndelOth
	SVDel
	SVIns
	SVOth
)

// NumTypes is the number of variant types.
const NumTypes = int(SVOth) + 1

// Types lists every variant type in report order.
var Types = []Type{SNP, IndelDel, IndelIns, IndelInv, IndelOth, SVDel, SVIns, SVOth}

var typeNames = [NumTypes]string{
	SNP:      "SNP",
	IndelDel: "INDEL_DEL",
	IndelIns: "INDEL_INS",
	IndelInv: "INDEL_INV",
	IndelOth: "INDEL_OTH",
	SVDel:    "SV_DEL",
	SVIns:    "SV_INS",
	SVOth:    "SV_OTH",
}

func (t Type) String() string {
	if int(t) < NumTypes {
		return typeNames[t]
	}
	return "UNKNOWN"
}

// IsSV reports whether t is a structural-scale type.
func (t Type) IsSV() bool {
	switch t {
	case SVDel, SVIns, SVOth:
		return true
	}
	return false
}

// IsIndel reports whether t is an indel-scale type.
func (t Type) IsIndel() bool {
	switch t {
	case IndelDel, IndelIns, IndelInv, IndelOth:
		return true
	}
	return false
}

// ParseType is the inverse of Type.String.
func ParseType(s string) (Type, bool) {
	for i, name := range typeNames {
		if name == s {
			return Type(i), true
		}
	}
	return 0, false
}

// Genotype is the zygosity of a single-sample call.
type Genotype uint8

const (
	HomRef Genotype = iota
	Het
	HomVar
	NoCall
)

func (g Genotype) String() string {
	switch g {
	case HomRef:
		return "HOM_REF"
	case Het:
		return "HET"
	case HomVar:
		return "HOM_VAR"
	}
	return "NO_CALL"
}

// ParseGenotype converts a GT value such as "0/1", "1|1" or "./." to a Genotype.
// Any missing allele makes the call NoCall; identical non-reference alleles
// are HomVar, all-reference alleles HomRef, and anything else Het.
func ParseGenotype(gt string) Genotype {
	if gt == "" || gt == "." {
		return NoCall
	}
	var alleles []string
	start := 0
	for i := 0; i < len(gt); i++ {
		if gt[i] == '/' || gt[i] == '|' {
			alleles = append(alleles, gt[start:i])
			start = i + 1
		}
	}
	alleles = append(alleles, gt[start:])

	allRef, same := true, true
	for _, a := range alleles {
		if a == "." || a == "" {
			return NoCall
		}
		if a != "0" {
			allRef = false
		}
		if a != alleles[0] {
			same = false
		}
	}
	switch {
	case allRef:
		return HomRef
	case same:
		return HomVar
	}
	return Het
}
