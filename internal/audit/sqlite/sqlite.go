// Package sqlite is the shipped audit.Sink implementation: an append-only
// SQLite table. Grounded directly on the teacher's internal/storage/db.go
// — same modernc.org/sqlite driver, same WAL/synchronous/busy-timeout DSN
// pragma construction, same CREATE TABLE IF NOT EXISTS bootstrap — with a
// schema reflecting this system's audit records instead of the teacher's
// position/trade tables.
package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"solana-brain/internal/audit"
)

// Sink is a SQLite-backed audit.Sink.
type Sink struct {
	db *sql.DB
}

// Open creates (or opens) the audit database at path, applying the same
// pragma tuning the teacher's storage layer uses.
func Open(path string) (*Sink, error) {
	dsn := path
	if !strings.Contains(path, "?") {
		dsn += "?"
	} else {
		dsn += "&"
	}
	dsn += "_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := createSchema(db); err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Msg("audit log initialized")
	return &Sink{db: db}, nil
}

func createSchema(db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS audit_records (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		mint TEXT NOT NULL,
		wallet TEXT,
		pathway TEXT,
		score INTEGER,
		size_sol REAL,
		pnl_percent REAL,
		detail TEXT,
		recorded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_records_mint ON audit_records(mint);
	`
	_, err := db.Exec(schema)
	return err
}

// Append implements audit.Sink. Never blocks the caller on anything beyond
// a single local INSERT; the pipeline/monitor treat a failure here as
// log-and-continue (spec.md §4.12: "non-blocking to the pipeline").
func (s *Sink) Append(ctx context.Context, r audit.Record) error {
	var wallet any
	if r.HasWallet {
		wallet = r.Wallet.String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_records (id, kind, mint, wallet, pathway, score, size_sol, pnl_percent, detail, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), r.Kind, r.Mint.String(), wallet, r.Pathway, r.Score, r.SizeSOL, r.PnLPercent, r.Detail, r.Timestamp.Unix())
	return err
}

// Close releases the underlying database handle.
func (s *Sink) Close() error {
	return s.db.Close()
}
