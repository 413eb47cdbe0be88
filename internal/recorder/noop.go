package recorder

import (
	"context"

	"github.com/google/uuid"
	"github.com/iwvelando/hardscape-estimator/internal/quote"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ context.Context, _ string, _ []quote.Quote) (string, error) {
	return uuid.NewString(), nil
}
func (n *NoopRecorder) Quotes(_ context.Context, _ string) ([]QuoteRecord, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                              { return nil }
