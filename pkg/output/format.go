// Package output provides utilities for formatting and displaying priced quotes.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/hardscape-estimator/internal/quote"
	"github.com/iwvelando/hardscape-estimator/pkg/format"
	"github.com/iwvelando/hardscape-estimator/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var csvHeader = []string{
	"estimate", "mode", "total cost", "overhead recovered", "contingency",
	"subtotal", "tax", "total", "gross margin %", "notes",
}

// PrettyFormat writes a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, results []quote.Quote) {
	p := message.NewPrinter(language.English)
	for i, result := range results {
		r := result.Result
		_, _ = fmt.Fprintf(w, "--- Quote for estimate %s ---\n", result.Name)
		_, _ = fmt.Fprintf(w, "Category  | Cost          | Price\n")
		_, _ = fmt.Fprintf(w, "________  | _____________ | _____________\n")
		for _, line := range r.Breakdown.Lines {
			_, _ = fmt.Fprintf(w, "%-9s | %13s | %13s\n", line.Category, format.Currency(line.Cost), format.Currency(line.Price))
		}
		_, _ = p.Fprintf(w, "Pricing mode: %s (overhead rate %s, recovered $%.2f)\n",
			r.Breakdown.Mode, format.HourlyRate(r.Breakdown.OverheadRate), r.OverheadRecovered)
		if !mathutil.IsZero(r.Breakdown.Contingency) {
			_, _ = fmt.Fprintf(w, "Contingency: %s\n", format.Currency(r.Breakdown.Contingency))
		}
		_, _ = fmt.Fprintf(w, "Subtotal: %s\n", format.Currency(r.Subtotal))
		_, _ = fmt.Fprintf(w, "Tax: %s (on %s)\n", format.Currency(r.Tax), format.Currency(r.Breakdown.TaxableBasis))
		_, _ = fmt.Fprintf(w, "Total: %s\n", format.Currency(r.Total))
		_, _ = fmt.Fprintf(w, "Gross margin: %s\n", format.Percent(r.Breakdown.GrossMarginPercent))
		for _, note := range result.Notes {
			_, _ = fmt.Fprintf(w, "Note: %s\n", note)
		}
		if i < len(results)-1 {
			_, _ = fmt.Fprintf(w, "\n")
		}
	}
}

// CsvFormat writes one row per quote in comma-separated value format.
func CsvFormat(w io.Writer, results []quote.Quote) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, result := range results {
		if err := writer.Write(csvRow(result)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// CsvString renders the quotes as CSV text.
func CsvString(results []quote.Quote) string {
	var builder strings.Builder
	if err := CsvFormat(&builder, results); err != nil {
		return ""
	}
	return builder.String()
}

func csvRow(q quote.Quote) []string {
	r := q.Result
	return []string{
		q.Name,
		string(r.Breakdown.Mode),
		money(r.Breakdown.TotalCost),
		money(r.OverheadRecovered),
		money(r.Breakdown.Contingency),
		money(r.Subtotal),
		money(r.Tax),
		money(r.Total),
		strconv.FormatFloat(r.Breakdown.GrossMarginPercent, 'f', 2, 64),
		strings.Join(q.Notes, "; "),
	}
}

func money(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
