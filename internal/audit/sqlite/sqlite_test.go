package sqlite

import (
	"context"
	"testing"
	"time"

	"solana-brain/internal/audit"
	"solana-brain/internal/ids"
)

func TestAppendAndSchemaBootstrap(t *testing.T) {
	sink, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer sink.Close()

	var mint ids.Mint
	mint[0] = 7

	err = sink.Append(context.Background(), audit.Record{
		Kind:       "decision_accept",
		Mint:       mint,
		Pathway:    "Momentum",
		Score:      72,
		SizeSOL:    0.2,
		PnLPercent: 0,
		Detail:     "ok",
		Timestamp:  time.Unix(1700000000, 0),
	})
	if err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	var count int
	row := sink.db.QueryRow("SELECT COUNT(*) FROM audit_records WHERE mint = ?", mint.String())
	if err := row.Scan(&count); err != nil {
		t.Fatalf("query error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
}

func TestAppendWithoutWallet(t *testing.T) {
	sink, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer sink.Close()

	var mint ids.Mint
	mint[1] = 9

	if err := sink.Append(context.Background(), audit.Record{Kind: "exit_StopLoss", Mint: mint, HasWallet: false}); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
}
