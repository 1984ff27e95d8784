package output

import (
	"encoding/json"
	"io"
)

type jsonReport struct {
	ErrorRates ErrorRates    `json:"error_rates"`
	Types      []TypeSummary `json:"types"`
}

// WriteJSON writes the per-type summaries as an indented JSON document.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{ErrorRates: r.Rates, Types: r.Summaries()})
}
