// Package egress sends trade decisions out over a bound datagram socket
// (spec.md §4.3/§6.2). Grounded on the teacher's internal/blockchain/rpc.go
// SendTransaction pattern: encode, send, log+count on failure, no retry —
// adapted from an RPC round-trip to a fire-and-forget UDP write.
package egress

import (
	"context"
	"net"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"solana-brain/internal/wire"
)

// Sender implements position.Emitter and the pipeline's buy-side emission
// step: one TradeDecision encoded and written per call.
type Sender struct {
	conn *net.UDPConn

	sent   atomic.Int64
	failed atomic.Int64
}

// New binds an ephemeral local port and targets destAddr.
func New(destAddr string) (*Sender, error) {
	addr, err := net.ResolveUDPAddr("udp", destAddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, err
	}
	return &Sender{conn: conn}, nil
}

// Send encodes and writes one TradeDecision. A send failure is logged and
// counted; there is no retry (spec.md §4.3).
func (s *Sender) Send(ctx context.Context, decision wire.TradeDecision) error {
	b, err := wire.EncodeTradeDecision(decision)
	if err != nil {
		s.failed.Add(1)
		log.Error().Err(err).Str("mint", decision.Mint.String()).Msg("failed to encode trade decision")
		return err
	}

	if _, err := s.conn.Write(b); err != nil {
		s.failed.Add(1)
		log.Error().Err(err).Str("mint", decision.Mint.String()).Msg("failed to send trade decision")
		return err
	}

	s.sent.Add(1)
	return nil
}

// Stats returns the sender's counters for the metrics collaborator.
func (s *Sender) Stats() (sent, failed int64) {
	return s.sent.Load(), s.failed.Load()
}

// Close releases the underlying socket.
func (s *Sender) Close() error {
	return s.conn.Close()
}
