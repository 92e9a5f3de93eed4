// Package storepg provides Postgres-backed StoreA/StoreB clients, the
// shipped implementation of the read-only window-table contracts in
// spec.md §6.3/§6.4. Grounded on sawpanic-cryptorun's data-facade package,
// which queries its own warm-tier Postgres store through the same
// jmoiron/sqlx + lib/pq pairing.
package storepg

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"solana-brain/internal/features"
	"solana-brain/internal/ids"
)

// MintStore queries store A: a window table of per-mint aggregates.
type MintStore struct {
	db            *sqlx.DB
	queryTimeout  time.Duration
}

// NewMintStore opens a Postgres connection for store A.
func NewMintStore(dsn string, queryTimeout time.Duration) (*MintStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect store A: %w", err)
	}
	return &MintStore{db: db, queryTimeout: queryTimeout}, nil
}

func (m *MintStore) Close() error { return m.db.Close() }

type mintRowSQL struct {
	Mint          string          `db:"mint"`
	LaunchTime    time.Time       `db:"launch_time"`
	ClosePrice    decimal.Decimal `db:"close_price"`
	Volume60s     decimal.Decimal `db:"volume_60s"`
	Buyers60s     uint32          `db:"buyers_60s"`
	Buys60s       uint32          `db:"buys_60s"`
	Sells60s      uint32          `db:"sells_60s"`
	Buyers2s      *uint32         `db:"buyers_2s"`
	Buyers10s     *uint32         `db:"buyers_10s"`
	Volume5s      *decimal.Decimal `db:"volume_5s"`
	Volume10s     *decimal.Decimal `db:"volume_10s"`
	WindowEndTime time.Time       `db:"window_end_time"`
	CreatorTrades *uint64         `db:"creator_trades"`
	InitialLiquidity *decimal.Decimal `db:"initial_liquidity"`
	Creator       *string         `db:"creator"`
}

// query is the "window table" left-joined over finer windows that are
// allowed to be absent, per spec.md §6.3.
const mintQuery = `
SELECT mint, launch_time, close_price, volume_60s, buyers_60s, buys_60s,
       sells_60s, buyers_2s, buyers_10s, volume_5s, volume_10s,
       window_end_time, creator_trades, initial_liquidity, creator
FROM mint_feature_window
ORDER BY volume_60s DESC
LIMIT $1
`

// TopMints implements features.StoreA.
func (m *MintStore) TopMints(ctx context.Context, n int) ([]features.MintRow, error) {
	ctx, cancel := context.WithTimeout(ctx, m.queryTimeout)
	defer cancel()

	var rows []mintRowSQL
	if err := m.db.SelectContext(ctx, &rows, mintQuery, n); err != nil {
		return nil, fmt.Errorf("query store A: %w", err)
	}

	out := make([]features.MintRow, 0, len(rows))
	for _, r := range rows {
		mintBytes, err := decodeMint(r.Mint)
		if err != nil {
			continue
		}
		row := features.MintRow{
			Mint:          mintBytes,
			LaunchTime:    r.LaunchTime,
			ClosePrice:    r.ClosePrice,
			Volume60s:     r.Volume60s,
			Buyers60s:     r.Buyers60s,
			Buys60s:       r.Buys60s,
			Sells60s:      r.Sells60s,
			WindowEndTime: r.WindowEndTime,
		}
		// spec.md Open Question 4: substitute the 10s window when the 2s/5s
		// window is absent from the store.
		switch {
		case r.Buyers2s != nil:
			row.Buyers2s = *r.Buyers2s
		case r.Buyers10s != nil:
			row.Buyers2s = *r.Buyers10s
			row.WindowSubstituted = true
		}
		switch {
		case r.Volume5s != nil:
			row.Volume5s = *r.Volume5s
		case r.Volume10s != nil:
			row.Volume5s = *r.Volume10s
			row.WindowSubstituted = true
		}
		if r.CreatorTrades != nil {
			row.CreatorTradesKnown = true
			row.CreatorTrades = *r.CreatorTrades
		}
		if r.InitialLiquidity != nil {
			row.InitialLiquidityKnown = true
			row.InitialLiquidity = *r.InitialLiquidity
		}
		if r.Creator != nil {
			row.Creator = *r.Creator
		}
		out = append(out, row)
	}
	return out, nil
}

// WalletStore queries store B: 7-day aggregate wallet statistics.
type WalletStore struct {
	db           *sqlx.DB
	queryTimeout time.Duration
}

// NewWalletStore opens a Postgres connection for store B.
func NewWalletStore(dsn string, queryTimeout time.Duration) (*WalletStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect store B: %w", err)
	}
	return &WalletStore{db: db, queryTimeout: queryTimeout}, nil
}

func (w *WalletStore) Close() error { return w.db.Close() }

type walletRowSQL struct {
	Wallet        string          `db:"wallet"`
	WinRate7d     float64         `db:"win_rate_7d"`
	RealizedPnL7d decimal.Decimal `db:"realized_pnl_7d"`
	TradesCount   uint64          `db:"trades_count"`
	AvgSize       decimal.Decimal `db:"avg_size"`
}

const walletQuery = `
SELECT wallet, win_rate_7d, realized_pnl_7d, trades_count, avg_size
FROM wallet_stats_7d
ORDER BY win_rate_7d DESC
LIMIT $1
`

// TopWallets implements features.StoreB.
func (w *WalletStore) TopWallets(ctx context.Context, n int) ([]features.WalletRow, error) {
	ctx, cancel := context.WithTimeout(ctx, w.queryTimeout)
	defer cancel()

	var rows []walletRowSQL
	if err := w.db.SelectContext(ctx, &rows, walletQuery, n); err != nil {
		return nil, fmt.Errorf("query store B: %w", err)
	}

	out := make([]features.WalletRow, 0, len(rows))
	for _, r := range rows {
		walletBytes, err := decodeWallet(r.Wallet)
		if err != nil {
			continue
		}
		out = append(out, features.WalletRow{
			Wallet:        walletBytes,
			WinRate7d:     r.WinRate7d,
			RealizedPnL7d: r.RealizedPnL7d,
			TradesCount:   r.TradesCount,
			AvgSize:       r.AvgSize,
		})
	}
	return out, nil
}

func decodeMint(base58Str string) (ids.Mint, error) {
	b, err := decodeBase58To32(base58Str)
	if err != nil {
		return ids.Mint{}, err
	}
	return ids.MintFromBytes(b), nil
}

func decodeWallet(base58Str string) (ids.Wallet, error) {
	b, err := decodeBase58To32(base58Str)
	if err != nil {
		return ids.Wallet{}, err
	}
	return ids.WalletFromBytes(b), nil
}
