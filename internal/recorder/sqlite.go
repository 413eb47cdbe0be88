package recorder

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/hardscape-estimator/internal/quote"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

const sqliteDialect = "sqlite3"

//go:embed migrations/*.sql
var migrationsFS embed.FS

var gooseMu sync.Mutex

// SQLiteRecorder persists quote history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	logger *zap.Logger
	mu     sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(logger *zap.Logger, dbPath string) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened",
		zap.String("op", "recorder.NewSQLiteRecorder"),
		zap.String("path", dbPath),
	)
	return &SQLiteRecorder{db: db, logger: logger}, nil
}

func migrate(db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(sqliteDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}
	return nil
}

// RecordRun stores the quotes of one run in a single transaction.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, source string, quotes []quote.Quote) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runID := uuid.NewString()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin run %s: %w", runID, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO runs (id, source, created_at) VALUES (?,?,?)`,
		runID, source, time.Now().Unix()); err != nil {
		return "", fmt.Errorf("insert run %s: %w", runID, err)
	}

	for i, q := range quotes {
		res := q.Result
		_, err := tx.ExecContext(ctx, `INSERT INTO quotes
			(run_id, position, estimate, mode, total_cost, overhead_rate, overhead_recovered,
			 contingency, taxable_basis, subtotal, tax, total, gross_margin, notes)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			runID, i, q.Name, string(res.Breakdown.Mode), res.Breakdown.TotalCost,
			res.Breakdown.OverheadRate, res.OverheadRecovered, res.Breakdown.Contingency,
			res.Breakdown.TaxableBasis, res.Subtotal, res.Tax, res.Total,
			res.Breakdown.GrossMarginPercent, strings.Join(q.Notes, "\n"),
		)
		if err != nil {
			return "", fmt.Errorf("insert quote %s: %w", q.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run %s: %w", runID, err)
	}

	r.logger.Debug("pricing run recorded",
		zap.String("op", "recorder.RecordRun"),
		zap.String("runID", runID),
		zap.String("source", source),
		zap.Int("quotes", len(quotes)),
	)
	return runID, nil
}

// Quotes returns the stored quotes of a run.
func (r *SQLiteRecorder) Quotes(ctx context.Context, runID string) ([]QuoteRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, `SELECT run_id, estimate, mode, total_cost, overhead_rate,
		overhead_recovered, contingency, taxable_basis, subtotal, tax, total, gross_margin, notes
		FROM quotes WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query quotes for run %s: %w", runID, err)
	}
	defer func() { _ = rows.Close() }()

	var records []QuoteRecord
	for rows.Next() {
		var rec QuoteRecord
		if err := rows.Scan(&rec.RunID, &rec.Estimate, &rec.Mode, &rec.TotalCost, &rec.OverheadRate,
			&rec.OverheadRecovered, &rec.Contingency, &rec.TaxableBasis, &rec.Subtotal, &rec.Tax,
			&rec.Total, &rec.GrossMargin, &rec.Notes); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database.
func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder", zap.String("op", "recorder.Close"))
	return r.db.Close()
}
