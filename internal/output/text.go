package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/inodb/vibe-bench/internal/variant"
)

const (
	shortRule = "-----------"
	longRule  = "------------------------"
)

// WriteText writes the human-readable report: a SNP block, full blocks for
// small and large insertions and deletions, and count-only blocks for the
// remaining types.
func WriteText(w io.Writer, r *Report) error {
	bw := bufio.NewWriter(w)

	writeSNPBlock(bw, r)
	writeBlock(bw, "Small Insertions", r, variant.IndelIns)
	writeBlock(bw, "Small Deletions", r, variant.IndelDel)
	writeCounts(bw, "Small Inversions", r, variant.IndelInv)
	writeCounts(bw, "Small Others", r, variant.IndelOth)
	writeBlock(bw, "Large Insertions", r, variant.SVIns)
	writeBlock(bw, "Large Deletions", r, variant.SVDel)
	writeCounts(bw, "Large Others", r, variant.SVOth)

	return bw.Flush()
}

func writeSNPBlock(w *bufio.Writer, r *Report) {
	s := r.Summarize(variant.SNP)

	fmt.Fprintln(w, "\n"+shortRule)
	fmt.Fprintln(w, "SNP Results")
	fmt.Fprintln(w, shortRule)
	fmt.Fprintf(w, "# True = %d; # Predicted = %d\n", s.NumTrue, s.NumPred)
	fmt.Fprintf(w, "\t# precision = %s\n", s.Precision)
	if s.KnownFPPrecision != nil {
		fmt.Fprintf(w, "\t# precision (known FP) = %.1f\n", 100*(*s.KnownFPPrecision))
	}
	fmt.Fprintf(w, "\t# recall = %s\n", s.Recall)
	fmt.Fprintf(w, "\t# allele mismatch = %d\n", s.AlleleMismatch)
	fmt.Fprintf(w, "\t# correct = %d\n", s.TruePositives)
	fmt.Fprintf(w, "\t# missed = %d\n", s.FalseNegatives)
	fmt.Fprintf(w, "\tpercent correct ignoring allele = %.1f\n", percent(s.TruePositives+s.AlleleMismatch, s.NumTrue))
	fmt.Fprintf(w, "\tpercent correct = %.1f\n", percent(s.TruePositives, s.NumTrue))
	fmt.Fprintf(w, "\tnon reference discrepancy = %f\n", 100*s.NRD)
}

func writeBlock(w *bufio.Writer, title string, r *Report, t variant.Type) {
	s := r.Summarize(t)

	fmt.Fprintln(w, "\n\n"+longRule)
	fmt.Fprintf(w, "%s Results\n", title)
	fmt.Fprintln(w, longRule)
	fmt.Fprintf(w, "# True = %d; # Predicted = %d\n", s.NumTrue, s.NumPred)
	fmt.Fprintf(w, "\t# precision = %s\n", s.Precision)
	if s.KnownFPPrecision != nil {
		fmt.Fprintf(w, "\t# precision (known FP) = %.1f\n", 100*(*s.KnownFPPrecision))
	}
	fmt.Fprintf(w, "\t# recall = %s\n", s.Recall)
	fmt.Fprintf(w, "\t# correct = %d\n", s.TruePositives)
	fmt.Fprintf(w, "\t# missed = %d\n", s.FalseNegatives)
	fmt.Fprintf(w, "\t# false pos = %d\n", s.FalsePositives)
	if s.NumTrue > 0 {
		fmt.Fprintf(w, "\tpercent correct = %.1f\n", percent(s.TruePositives, s.NumTrue))
		fmt.Fprintf(w, "\tnon reference discrepancy = %.1f\n", 100*s.NRD)
	}
}

func writeCounts(w *bufio.Writer, title string, r *Report, t variant.Type) {
	s := r.Stats.Get(t)

	fmt.Fprintln(w, "\n\n"+longRule)
	fmt.Fprintf(w, "%s Statistics\n", title)
	fmt.Fprintln(w, longRule)
	fmt.Fprintf(w, "# True = %d; # Predicted = %d\n", s.NumTrue, s.NumPred)
}
