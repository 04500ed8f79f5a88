package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/farm-yield-sim/internal/domain"
	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned when a run ID has no stored rows.
var ErrRunNotFound = errors.New("run not found")

// SQLiteRecorder persists runs and their monthly yields to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *slog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *slog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			year        INTEGER NOT NULL,
			origin_lat  REAL NOT NULL,
			origin_lon  REAL NOT NULL,
			step        REAL NOT NULL,
			grid_rows   INTEGER NOT NULL,
			grid_cols   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS monthly_yields (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id            TEXT NOT NULL REFERENCES runs(id),
			cell_row          INTEGER NOT NULL,
			cell_col          INTEGER NOT NULL,
			crop              TEXT NOT NULL,
			month             INTEGER NOT NULL,
			mean_temp         REAL,
			sunshine_hours    REAL,
			precipitation_mm  REAL,
			days_with_weather INTEGER NOT NULL,
			yield_percent     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_yields_run ON monthly_yields(run_id, cell_row, cell_col, month)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) Name() string { return "sqlite" }

// Publish stores run and every cell-month in one transaction. Months without
// a yield are stored with a NULL yield_percent.
func (r *SQLiteRecorder) Publish(ctx context.Context, run domain.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, started_at, duration_ms, year, origin_lat, origin_lon, step, grid_rows, grid_cols)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.UnixMilli(), run.Duration.Milliseconds(), run.Year,
		run.Origin.Latitude, run.Origin.Longitude, run.Step, run.Grid.Rows, run.Grid.Cols,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO monthly_yields
		(run_id, cell_row, cell_col, crop, month, mean_temp, sunshine_hours, precipitation_mm, days_with_weather, yield_percent)
		VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare yields: %w", err)
	}
	defer stmt.Close()

	for _, row := range run.Grid.Cells {
		for _, cell := range row {
			for _, m := range cell.Months {
				_, err := stmt.ExecContext(ctx,
					run.ID, cell.Row, cell.Col, cell.Crop.String(), int(m.Month),
					m.Weather.MeanTemp, m.Weather.SunshineHours, m.Weather.PrecipitationMm,
					m.DaysWithWeather, m.YieldPercent,
				)
				if err != nil {
					return fmt.Errorf("insert yield (%d,%d) %s: %w", cell.Row, cell.Col, m.Month, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	return nil
}

// Yields returns the stored cell-months of a run ordered by row, column and month.
func (r *SQLiteRecorder) Yields(ctx context.Context, runID string) ([]YieldRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT cell_row, cell_col, crop, month, days_with_weather, yield_percent
		FROM monthly_yields WHERE run_id = ? ORDER BY cell_row, cell_col, month`, runID)
	if err != nil {
		return nil, fmt.Errorf("query yields: %w", err)
	}
	defer rows.Close()

	var out []YieldRecord
	for rows.Next() {
		var (
			rec   YieldRecord
			crop  string
			yield sql.NullFloat64
		)
		if err := rows.Scan(&rec.Row, &rec.Col, &crop, &rec.Month, &rec.DaysWithWeather, &yield); err != nil {
			return nil, fmt.Errorf("scan yield: %w", err)
		}
		if rec.Crop, err = domain.ParseCrop(crop); err != nil {
			return nil, err
		}
		if yield.Valid {
			v := yield.Float64
			rec.YieldPercent = &v
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate yields: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return out, nil
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
