// Package audit defines the opaque, append-only decision/exit record sink
// (spec.md §4.12: "format is out of scope here; the contract is
// append-only and non-blocking to the pipeline"). The concrete SQLite
// implementation lives in internal/audit/sqlite.
package audit

import (
	"context"
	"time"

	"solana-brain/internal/ids"
)

// Record is one append-only audit entry: either a decision (buy/reject) or
// an exit. Kind and Detail are free-form tags; the exact schema is an
// implementer's choice, not a spec contract.
type Record struct {
	Kind       string
	Mint       ids.Mint
	Wallet     ids.Wallet
	HasWallet  bool
	Pathway    string
	Score      uint8
	SizeSOL    float64
	PnLPercent float64
	Detail     string
	Timestamp  time.Time
}

// Sink is the opaque append(record) interface of spec.md §4.12.
type Sink interface {
	Append(ctx context.Context, r Record) error
}
