// Package recorder persists priced quotes for later analysis.
package recorder

import (
	"context"
	"time"

	"github.com/iwvelando/hardscape-estimator/internal/quote"
)

// Run is one pricing run and the quotes it produced.
type Run struct {
	ID        string
	Source    string // "cli" or "api"
	CreatedAt time.Time
	Quotes    []quote.Quote
}

// QuoteRecord is one stored quote.
type QuoteRecord struct {
	RunID             string
	Estimate          string
	Mode              string
	TotalCost         float64
	OverheadRate      float64
	OverheadRecovered float64
	Contingency       float64
	TaxableBasis      float64
	Subtotal          float64
	Tax               float64
	Total             float64
	GrossMargin       float64
	Notes             string
}

// Recorder persists quote history.
type Recorder interface {
	// RecordRun stores the quotes of one run and returns the run ID.
	RecordRun(ctx context.Context, source string, quotes []quote.Quote) (string, error)
	// Quotes returns the stored quotes of a run in estimate order.
	Quotes(ctx context.Context, runID string) ([]QuoteRecord, error)
	Close() error
}
