// Package vcf provides VCF file parsing functionality.
package vcf

import "strings"

// Variant represents a single record from a VCF file.
type Variant struct {
	Chrom   string   // Chromosome name (e.g., "12", "chr12")
	Pos     int64    // 1-based genomic position
	ID      string   // Variant identifier (e.g., rs ID)
	Ref     string   // Reference allele
	Alt     string   // Raw ALT column, comma-separated for multi-allelic records
	Qual    string   // Raw QUAL column
	Filter  string   // Filter status (PASS or filter name)
	Info    string   // Raw INFO column
	Format  string   // FORMAT column, empty when absent
	Samples []string // Per-sample columns following FORMAT
}

// Alts returns the alternate alleles in file order.
// A missing ALT ("." or empty) yields no alleles.
func (v *Variant) Alts() []string {
	if v.Alt == "" || v.Alt == "." {
		return nil
	}
	return strings.Split(v.Alt, ",")
}

// IsPass reports whether the record passed all filters ("PASS", "." or empty).
func (v *Variant) IsPass() bool {
	return v.Filter == "" || v.Filter == "." || v.Filter == "PASS"
}

// Genotype returns the GT value of the first sample, or "." when the record
// carries no samples or no GT field.
func (v *Variant) Genotype() string {
	if len(v.Samples) == 0 {
		return "."
	}
	keys := strings.Split(v.Format, ":")
	vals := strings.Split(v.Samples[0], ":")
	for i, k := range keys {
		if k == "GT" {
			if i < len(vals) && vals[i] != "" {
				return vals[i]
			}
			return "."
		}
	}
	return "."
}

// InfoValue looks up a key in the INFO column. Flags return "" and true.
func (v *Variant) InfoValue(key string) (string, bool) {
	if v.Info == "" || v.Info == "." {
		return "", false
	}
	for _, kv := range strings.Split(v.Info, ";") {
		k, val, _ := strings.Cut(kv, "=")
		if k == key {
			return val, true
		}
	}
	return "", false
}

// AddInfo appends a key=value pair to the INFO column.
func (v *Variant) AddInfo(key, value string) {
	kv := key + "=" + value
	if v.Info == "" || v.Info == "." {
		v.Info = kv
		return
	}
	v.Info += ";" + kv
}

// Clone returns a copy of the record that shares no slices with the original.
func (v *Variant) Clone() *Variant {
	c := *v
	c.Samples = append([]string(nil), v.Samples...)
	return &c
}
