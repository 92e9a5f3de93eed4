// Package ingress binds the datagram endpoint advisories arrive on
// (spec.md §4.2/§6.1): one receive, one decode, one dispatch. Grounded on
// the teacher's internal/websocket/price_feed.go goroutine-per-feed
// subscription shape, adapted from a push/callback model to a read-loop/
// dispatch model, with error handling in the teacher's executor.go
// log-and-continue style — a malformed or unroutable frame is never fatal
// to the receive loop.
package ingress

import (
	"context"
	"net"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"solana-brain/internal/priceoracle"
	"solana-brain/internal/wire"
)

// Receiver owns the bound UDP socket and dispatches decoded frames to the
// pipeline's bounded per-pathway channels, or to the price gauge.
type Receiver struct {
	conn *net.UDPConn

	gauge *priceoracle.Gauge

	lateOpportunities chan wire.LateOpportunity
	copyTrades        chan wire.CopyTrade

	readBufferSize int

	framesReceived  atomic.Int64
	framesMalformed atomic.Int64
	framesDropped   atomic.Int64
	// holdExitAdvisories counts ExtendHold/WidenExit frames received; the
	// tracker has no consumer for them yet (future work, spec.md §4.2 /
	// SPEC_FULL.md §9), so they are counted and discarded rather than acted
	// on.
	holdExitAdvisories atomic.Int64
}

// New binds listenAddr and constructs a Receiver. The caller owns the
// lifetime of the returned channels and must drain them.
func New(listenAddr string, readBufferSize, queueDepth int, gauge *priceoracle.Gauge) (*Receiver, error) {
	addr, err := net.ResolveUDPAddr("udp", listenAddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}

	if readBufferSize <= 0 {
		readBufferSize = 4096
	}
	if queueDepth <= 0 {
		queueDepth = 1024
	}

	return &Receiver{
		conn:              conn,
		gauge:             gauge,
		lateOpportunities: make(chan wire.LateOpportunity, queueDepth),
		copyTrades:        make(chan wire.CopyTrade, queueDepth),
		readBufferSize:    readBufferSize,
	}, nil
}

// LateOpportunities is the bounded channel the pipeline reads LateOpportunity
// candidates from.
func (r *Receiver) LateOpportunities() <-chan wire.LateOpportunity { return r.lateOpportunities }

// CopyTrades is the bounded channel the pipeline reads CopyTrade candidates
// from.
func (r *Receiver) CopyTrades() <-chan wire.CopyTrade { return r.copyTrades }

// Run drives the receive loop until ctx is canceled. Socket reads are made
// cancellable by closing the connection on ctx.Done.
func (r *Receiver) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		r.conn.Close()
	}()

	buf := make([]byte, r.readBufferSize)
	for {
		n, _, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Msg("ingress read failed")
			continue
		}
		r.framesReceived.Add(1)
		r.dispatch(append([]byte(nil), buf[:n]...))
	}
}

func (r *Receiver) dispatch(b []byte) {
	if len(b) == 0 {
		r.framesMalformed.Add(1)
		return
	}

	switch wire.Kind(b[0]) {
	case wire.KindSolPriceUpdate:
		m, err := wire.DecodeSolPriceUpdate(b)
		if err != nil {
			log.Warn().Err(err).Msg("malformed SolPriceUpdate frame")
			r.framesMalformed.Add(1)
			return
		}
		r.gauge.Set(decimal.NewFromFloat32(m.Price), m.SourceTag)

	case wire.KindLateOpportunity:
		m, err := wire.DecodeLateOpportunity(b)
		if err != nil {
			log.Warn().Err(err).Msg("malformed LateOpportunity frame")
			r.framesMalformed.Add(1)
			return
		}
		select {
		case r.lateOpportunities <- m:
		default:
			r.framesDropped.Add(1)
			log.Warn().Str("mint", m.Mint.String()).Msg("late-opportunity queue full, dropping")
		}

	case wire.KindCopyTrade:
		m, err := wire.DecodeCopyTrade(b)
		if err != nil {
			log.Warn().Err(err).Msg("malformed CopyTrade frame")
			r.framesMalformed.Add(1)
			return
		}
		select {
		case r.copyTrades <- m:
		default:
			r.framesDropped.Add(1)
			log.Warn().Str("mint", m.Mint.String()).Msg("copy-trade queue full, dropping")
		}

	case wire.KindExtendHold:
		if _, err := wire.DecodeExtendHold(b); err != nil {
			r.framesMalformed.Add(1)
			return
		}
		r.holdExitAdvisories.Add(1)

	case wire.KindWidenExit:
		if _, err := wire.DecodeWidenExit(b); err != nil {
			r.framesMalformed.Add(1)
			return
		}
		r.holdExitAdvisories.Add(1)

	default:
		log.Debug().Uint8("kind", uint8(b[0])).Msg("unknown ingress kind byte, dropping")
		r.framesMalformed.Add(1)
	}
}

// Stats returns the receiver's frame counters for the metrics collaborator.
func (r *Receiver) Stats() (received, malformed, dropped, holdExit int64) {
	return r.framesReceived.Load(), r.framesMalformed.Load(), r.framesDropped.Load(), r.holdExitAdvisories.Load()
}

// Close releases the bound socket.
func (r *Receiver) Close() error {
	return r.conn.Close()
}
