// Package history provides SQLite-based storage of completed runs: the
// configuration that produced them and the per-period metrics series.
package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
	"gopkg.in/yaml.v3"

	"github.com/malakkhan/taxforce/internal/config"
	"github.com/malakkhan/taxforce/internal/engine"
	"github.com/malakkhan/taxforce/internal/metrics"
)

// Store wraps a SQLite connection for run history.
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	st := &Store{conn: conn}
	if err := st.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return st, nil
}

// Close closes the database connection.
func (st *Store) Close() error {
	return st.conn.Close()
}

func (st *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		seed INTEGER NOT NULL,
		n INTEGER NOT NULL,
		horizon INTEGER NOT NULL,
		config_yaml TEXT NOT NULL,
		compliance_rate REAL NOT NULL,
		total_revenue REAL NOT NULL,
		mean_morale REAL NOT NULL,
		mean_trust REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_metrics (
		run_id TEXT NOT NULL,
		period INTEGER NOT NULL,
		compliance_rate REAL NOT NULL,
		total_revenue REAL NOT NULL,
		tax_gap REAL NOT NULL,
		mean_morale REAL NOT NULL,
		mean_trust REAL NOT NULL,
		mean_perceived_risk REAL NOT NULL,
		audits INTEGER NOT NULL,
		penalties REAL NOT NULL,
		covenants INTEGER NOT NULL,
		PRIMARY KEY (run_id, period)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := st.conn.Exec(schema)
	return err
}

// RunSummary is one stored run's header row.
type RunSummary struct {
	ID             string  `db:"id" json:"id"`
	CreatedAt      string  `db:"created_at" json:"created_at"`
	Seed           int64   `db:"seed" json:"seed"`
	N              int     `db:"n" json:"n"`
	Horizon        int     `db:"horizon" json:"horizon"`
	ComplianceRate float64 `db:"compliance_rate" json:"compliance_rate"`
	TotalRevenue   float64 `db:"total_revenue" json:"total_revenue"`
	MeanMorale     float64 `db:"mean_morale" json:"mean_morale"`
	MeanTrust      float64 `db:"mean_trust" json:"mean_trust"`
}

// SaveRun stores a completed run and its full metrics series. Returns the
// assigned run id.
func (st *Store) SaveRun(cfg config.Config, res engine.Result) (string, error) {
	cfgYAML, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}

	tx, err := st.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	id := uuid.NewString()
	final := res.Final()
	_, err = tx.Exec(`INSERT INTO runs
		(id, created_at, seed, n, horizon, config_yaml,
		 compliance_rate, total_revenue, mean_morale, mean_trust)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339), cfg.Seed, cfg.N, cfg.Horizon,
		string(cfgYAML), final.ComplianceRate, final.TotalRevenue,
		final.MeanMorale, final.MeanTrust,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Preparex(`INSERT INTO run_metrics
		(run_id, period, compliance_rate, total_revenue, tax_gap,
		 mean_morale, mean_trust, mean_perceived_risk, audits, penalties, covenants)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, m := range res.Series {
		_, err := stmt.Exec(id, m.Period, m.ComplianceRate, m.TotalRevenue,
			m.TaxGap, m.MeanMorale, m.MeanTrust, m.MeanPerceivedRisk,
			m.AuditsPerformed, m.PenaltiesAssessed, m.CovenantsActive)
		if err != nil {
			return "", fmt.Errorf("insert metrics period %d: %w", m.Period, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// ListRuns returns stored run summaries, newest first.
func (st *Store) ListRuns() ([]RunSummary, error) {
	var runs []RunSummary
	err := st.conn.Select(&runs, `SELECT id, created_at, seed, n, horizon,
		compliance_rate, total_revenue, mean_morale, mean_trust
		FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// LoadSeries returns the metrics series of a stored run in period order.
func (st *Store) LoadSeries(runID string) ([]metrics.StepMetrics, error) {
	rows, err := st.conn.Queryx(`SELECT period, compliance_rate, total_revenue,
		tax_gap, mean_morale, mean_trust, mean_perceived_risk,
		audits, penalties, covenants
		FROM run_metrics WHERE run_id = ? ORDER BY period`, runID)
	if err != nil {
		return nil, fmt.Errorf("load series: %w", err)
	}
	defer rows.Close()

	var series []metrics.StepMetrics
	for rows.Next() {
		var m metrics.StepMetrics
		err := rows.Scan(&m.Period, &m.ComplianceRate, &m.TotalRevenue,
			&m.TaxGap, &m.MeanMorale, &m.MeanTrust, &m.MeanPerceivedRisk,
			&m.AuditsPerformed, &m.PenaltiesAssessed, &m.CovenantsActive)
		if err != nil {
			return nil, err
		}
		series = append(series, m)
	}
	return series, rows.Err()
}

// LoadConfig returns the YAML configuration a stored run was created with.
func (st *Store) LoadConfig(runID string) (config.Config, error) {
	var raw string
	if err := st.conn.Get(&raw, `SELECT config_yaml FROM runs WHERE id = ?`, runID); err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	var cfg config.Config
	if err := yaml.Unmarshal([]byte(raw), &cfg); err != nil {
		return config.Config{}, fmt.Errorf("parse stored config: %w", err)
	}
	return cfg, nil
}
