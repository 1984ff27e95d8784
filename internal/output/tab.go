package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-bench/internal/variant"
)

var tsvColumns = []string{
	"VariantType",
	"#True",
	"#Pred",
	"Precision",
	"Recall",
	"TP",
	"FP",
	"FN",
}

// WriteTSV writes one tab-delimited row per variant type with point
// precision and recall.
func WriteTSV(w io.Writer, r *Report) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(tsvColumns, "\t") + "\n"); err != nil {
		return err
	}

	for _, t := range variant.Types {
		s := r.Stats.Get(t)
		fields := []string{
			t.String(),
			strconv.Itoa(s.NumTrue),
			strconv.Itoa(s.NumPred),
			strconv.FormatFloat(s.Precision(), 'f', -1, 64),
			strconv.FormatFloat(s.Recall(), 'f', -1, 64),
			strconv.Itoa(s.TruePositives),
			strconv.Itoa(s.FalsePositives),
			strconv.Itoa(s.FalseNegatives),
		}
		if _, err := bw.WriteString(strings.Join(fields, "\t") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
