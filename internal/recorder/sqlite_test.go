package recorder

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/iwvelando/hardscape-estimator/internal/quote"
	"github.com/iwvelando/hardscape-estimator/pkg/estimate"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleQuotes() []quote.Quote {
	return []quote.Quote{
		{
			Name: "Patio",
			Result: estimate.Result{
				Subtotal:          2879,
				Total:             2879,
				OverheadRecovered: 531.25,
				Breakdown: estimate.Breakdown{
					Mode:               estimate.ModeMarkup,
					OverheadRate:       53.125,
					TotalCost:          1931.25,
					GrossMarginPercent: 32.92,
				},
			},
		},
		{
			Name: "Wall",
			Result: estimate.Result{
				Subtotal: 1000,
				Tax:      70,
				Total:    1070,
				Breakdown: estimate.Breakdown{
					Mode:         estimate.ModeMargin,
					TaxableBasis: 875,
					Contingency:  50,
				},
			},
			Notes: []string{"first", "second"},
		},
	}
}

func TestSQLiteRecorderRoundTrip(t *testing.T) {
	ctx := context.Background()
	rec, err := NewSQLiteRecorder(zap.NewNop(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Close() })

	runID, err := rec.RecordRun(ctx, "cli", sampleQuotes())
	require.NoError(t, err)
	_, err = uuid.Parse(runID)
	require.NoError(t, err, "run ID should be a uuid")

	records, err := rec.Quotes(ctx, runID)
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Equal(t, "Patio", records[0].Estimate)
	require.Equal(t, "markup", records[0].Mode)
	require.InDelta(t, 2879, records[0].Total, 1e-9)
	require.InDelta(t, 531.25, records[0].OverheadRecovered, 1e-9)
	require.InDelta(t, 53.125, records[0].OverheadRate, 1e-9)
	require.Empty(t, records[0].Notes)

	require.Equal(t, "Wall", records[1].Estimate)
	require.Equal(t, "margin", records[1].Mode)
	require.InDelta(t, 70, records[1].Tax, 1e-9)
	require.InDelta(t, 875, records[1].TaxableBasis, 1e-9)
	require.Equal(t, "first\nsecond", records[1].Notes)
	require.Equal(t, runID, records[1].RunID)
}

func TestSQLiteRecorderSeparatesRuns(t *testing.T) {
	ctx := context.Background()
	rec, err := NewSQLiteRecorder(nil, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Close() })

	first, err := rec.RecordRun(ctx, "api", sampleQuotes()[:1])
	require.NoError(t, err)
	second, err := rec.RecordRun(ctx, "api", sampleQuotes())
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	records, err := rec.Quotes(ctx, first)
	require.NoError(t, err)
	require.Len(t, records, 1)

	records, err = rec.Quotes(ctx, second)
	require.NoError(t, err)
	require.Len(t, records, 2)

	records, err = rec.Quotes(ctx, uuid.NewString())
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestSQLiteRecorderReopenKeepsHistory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	rec, err := NewSQLiteRecorder(nil, path)
	require.NoError(t, err)
	runID, err := rec.RecordRun(ctx, "cli", sampleQuotes())
	require.NoError(t, err)
	require.NoError(t, rec.Close())

	reopened, err := NewSQLiteRecorder(nil, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	records, err := reopened.Quotes(ctx, runID)
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NewNoopRecorder()

	runID, err := rec.RecordRun(context.Background(), "cli", sampleQuotes())
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	records, err := rec.Quotes(context.Background(), runID)
	require.NoError(t, err)
	require.Empty(t, records)
	require.NoError(t, rec.Close())
}

func TestOpen(t *testing.T) {
	rec, err := Open(nil, "")
	require.NoError(t, err)
	require.IsType(t, &NoopRecorder{}, rec)

	rec, err = Open(zap.NewNop(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	require.IsType(t, &SQLiteRecorder{}, rec)
	require.NoError(t, rec.Close())

	_, err = Open(nil, filepath.Join(t.TempDir(), "missing", "dir", "history.db"))
	require.Error(t, err)
}
