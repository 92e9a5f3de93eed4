// Package wire implements the fixed-layout, little-endian binary codec for
// every datagram crossing the ingress and egress buses. Each kind has an
// exact byte length; decoding the wrong length for a given kind, or finding
// an enumerated field out of range, yields a MalformedFrame error and never
// panics — callers (internal/ingress) log and drop the frame and continue.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"solana-brain/internal/ids"
)

// Kind is the one-byte discriminator always present at offset 0.
type Kind byte

const (
	KindTradeDecision   Kind = 1
	KindExtendHold      Kind = 10
	KindWidenExit       Kind = 11
	KindLateOpportunity Kind = 12
	KindCopyTrade       Kind = 13
	KindSolPriceUpdate  Kind = 14
)

func (k Kind) String() string {
	switch k {
	case KindTradeDecision:
		return "TradeDecision"
	case KindExtendHold:
		return "ExtendHold"
	case KindWidenExit:
		return "WidenExit"
	case KindLateOpportunity:
		return "LateOpportunity"
	case KindCopyTrade:
		return "CopyTrade"
	case KindSolPriceUpdate:
		return "SolPriceUpdate"
	default:
		return fmt.Sprintf("Unknown(%d)", byte(k))
	}
}

// Exact on-wire sizes, including the leading kind byte.
//
// TradeDecision's size is specified at 52 bytes, two bytes wider than the
// literal sum of its listed fields, kind byte and 5-byte pad included (50);
// the extra two bytes are folded into the padding here so the declared frame
// length is honored exactly. ExtendHold and WidenExit are specified as
// "fixed" width without a literal byte count; both are sized at 40 bytes
// (kind byte, mint, their fields, zero padding).
const (
	sizeTradeDecision   = 52
	sizeExtendHold      = 40
	sizeWidenExit       = 40
	sizeLateOpportunity = 56
	sizeCopyTrade       = 80
	sizeSolPriceUpdate  = 32
)

// MalformedFrame is returned when a datagram's length doesn't match its
// declared kind, or an enumerated field is out of range.
type MalformedFrame struct {
	Kind   Kind
	Reason string
}

func (e *MalformedFrame) Error() string {
	return fmt.Sprintf("malformed frame (kind=%s): %s", e.Kind, e.Reason)
}

// ExtendHold is an ingress advisory extending a position's max hold time.
type ExtendHold struct {
	Mint         ids.Mint
	ExtraSeconds uint32
	Confidence   uint8
}

// WidenExit is an ingress advisory widening acceptable exit slippage.
type WidenExit struct {
	Mint               ids.Mint
	WidenedSlippageBps uint16
	TTLMillis          uint32
}

// LateOpportunity is an ingress advisory for a freshly hot mint.
type LateOpportunity struct {
	Mint       ids.Mint
	AgeSeconds uint64
	Volume60s  float32
	Buyers60s  uint32
	PreScore   uint8
}

// Side distinguishes buy/sell across CopyTrade and TradeDecision.
type Side uint8

const (
	SideBuy  Side = 0
	SideSell Side = 1
)

func (s Side) valid() bool { return s == SideBuy || s == SideSell }

// CopyTrade is an ingress advisory mirroring a tracked wallet's trade.
type CopyTrade struct {
	Wallet           ids.Wallet
	Mint             ids.Mint
	Side             Side
	SizeInBase       float32
	WalletTier       uint8 // 0..=3
	WalletConfidence uint8
}

// SolPriceUpdate is an ingress update to the process-wide SOL/USD price.
type SolPriceUpdate struct {
	Price     float32
	Timestamp uint64
	SourceTag uint8
}

// TradeDecision is the only egress datagram: a concrete order.
type TradeDecision struct {
	Mint             ids.Mint
	Side             Side
	SizeInBaseUnits  uint64
	SlippageBps      uint16
	Confidence       uint8
}

// EncodeExtendHold encodes an ExtendHold advisory.
func EncodeExtendHold(m ExtendHold) []byte {
	b := make([]byte, sizeExtendHold)
	b[0] = byte(KindExtendHold)
	copy(b[1:33], m.Mint[:])
	binary.LittleEndian.PutUint32(b[33:37], m.ExtraSeconds)
	b[37] = m.Confidence
	return b
}

// DecodeExtendHold decodes an ExtendHold advisory.
func DecodeExtendHold(b []byte) (ExtendHold, error) {
	var m ExtendHold
	if len(b) != sizeExtendHold {
		return m, &MalformedFrame{Kind: KindExtendHold, Reason: fmt.Sprintf("want %d bytes, got %d", sizeExtendHold, len(b))}
	}
	m.Mint = ids.MintFromBytes(b[1:33])
	m.ExtraSeconds = binary.LittleEndian.Uint32(b[33:37])
	m.Confidence = b[37]
	return m, nil
}

// EncodeWidenExit encodes a WidenExit advisory.
func EncodeWidenExit(m WidenExit) []byte {
	b := make([]byte, sizeWidenExit)
	b[0] = byte(KindWidenExit)
	copy(b[1:33], m.Mint[:])
	binary.LittleEndian.PutUint16(b[33:35], m.WidenedSlippageBps)
	binary.LittleEndian.PutUint32(b[35:39], m.TTLMillis)
	return b
}

// DecodeWidenExit decodes a WidenExit advisory.
func DecodeWidenExit(b []byte) (WidenExit, error) {
	var m WidenExit
	if len(b) != sizeWidenExit {
		return m, &MalformedFrame{Kind: KindWidenExit, Reason: fmt.Sprintf("want %d bytes, got %d", sizeWidenExit, len(b))}
	}
	m.Mint = ids.MintFromBytes(b[1:33])
	m.WidenedSlippageBps = binary.LittleEndian.Uint16(b[33:35])
	m.TTLMillis = binary.LittleEndian.Uint32(b[35:39])
	return m, nil
}

// EncodeLateOpportunity encodes a LateOpportunity advisory.
func EncodeLateOpportunity(m LateOpportunity) []byte {
	b := make([]byte, sizeLateOpportunity)
	b[0] = byte(KindLateOpportunity)
	copy(b[1:33], m.Mint[:])
	binary.LittleEndian.PutUint64(b[33:41], m.AgeSeconds)
	binary.LittleEndian.PutUint32(b[41:45], float32bits(m.Volume60s))
	binary.LittleEndian.PutUint32(b[45:49], m.Buyers60s)
	b[49] = m.PreScore
	return b
}

// DecodeLateOpportunity decodes a LateOpportunity advisory.
func DecodeLateOpportunity(b []byte) (LateOpportunity, error) {
	var m LateOpportunity
	if len(b) != sizeLateOpportunity {
		return m, &MalformedFrame{Kind: KindLateOpportunity, Reason: fmt.Sprintf("want %d bytes, got %d", sizeLateOpportunity, len(b))}
	}
	if b[49] > 100 {
		return m, &MalformedFrame{Kind: KindLateOpportunity, Reason: "pre_score out of range [0,100]"}
	}
	m.Mint = ids.MintFromBytes(b[1:33])
	m.AgeSeconds = binary.LittleEndian.Uint64(b[33:41])
	m.Volume60s = float32frombits(binary.LittleEndian.Uint32(b[41:45]))
	m.Buyers60s = binary.LittleEndian.Uint32(b[45:49])
	m.PreScore = b[49]
	return m, nil
}

// EncodeCopyTrade encodes a CopyTrade advisory.
func EncodeCopyTrade(m CopyTrade) ([]byte, error) {
	if !m.Side.valid() {
		return nil, &MalformedFrame{Kind: KindCopyTrade, Reason: "side out of range"}
	}
	if m.WalletTier > 3 {
		return nil, &MalformedFrame{Kind: KindCopyTrade, Reason: "wallet_tier out of range [0,3]"}
	}
	b := make([]byte, sizeCopyTrade)
	b[0] = byte(KindCopyTrade)
	copy(b[1:33], m.Wallet[:])
	copy(b[33:65], m.Mint[:])
	b[65] = byte(m.Side)
	binary.LittleEndian.PutUint32(b[66:70], float32bits(m.SizeInBase))
	b[70] = m.WalletTier
	b[71] = m.WalletConfidence
	return b, nil
}

// DecodeCopyTrade decodes a CopyTrade advisory.
func DecodeCopyTrade(b []byte) (CopyTrade, error) {
	var m CopyTrade
	if len(b) != sizeCopyTrade {
		return m, &MalformedFrame{Kind: KindCopyTrade, Reason: fmt.Sprintf("want %d bytes, got %d", sizeCopyTrade, len(b))}
	}
	side := Side(b[65])
	if !side.valid() {
		return m, &MalformedFrame{Kind: KindCopyTrade, Reason: "side out of range"}
	}
	if b[70] > 3 {
		return m, &MalformedFrame{Kind: KindCopyTrade, Reason: "wallet_tier out of range [0,3]"}
	}
	m.Wallet = ids.WalletFromBytes(b[1:33])
	m.Mint = ids.MintFromBytes(b[33:65])
	m.Side = side
	m.SizeInBase = float32frombits(binary.LittleEndian.Uint32(b[66:70]))
	m.WalletTier = b[70]
	m.WalletConfidence = b[71]
	return m, nil
}

// EncodeSolPriceUpdate encodes a SolPriceUpdate.
func EncodeSolPriceUpdate(m SolPriceUpdate) []byte {
	b := make([]byte, sizeSolPriceUpdate)
	b[0] = byte(KindSolPriceUpdate)
	binary.LittleEndian.PutUint32(b[1:5], float32bits(m.Price))
	binary.LittleEndian.PutUint64(b[5:13], m.Timestamp)
	b[13] = m.SourceTag
	return b
}

// DecodeSolPriceUpdate decodes a SolPriceUpdate.
func DecodeSolPriceUpdate(b []byte) (SolPriceUpdate, error) {
	var m SolPriceUpdate
	if len(b) != sizeSolPriceUpdate {
		return m, &MalformedFrame{Kind: KindSolPriceUpdate, Reason: fmt.Sprintf("want %d bytes, got %d", sizeSolPriceUpdate, len(b))}
	}
	m.Price = float32frombits(binary.LittleEndian.Uint32(b[1:5]))
	m.Timestamp = binary.LittleEndian.Uint64(b[5:13])
	m.SourceTag = b[13]
	return m, nil
}

// EncodeTradeDecision encodes a TradeDecision for egress.
func EncodeTradeDecision(m TradeDecision) ([]byte, error) {
	if !m.Side.valid() {
		return nil, &MalformedFrame{Kind: KindTradeDecision, Reason: "side out of range"}
	}
	if m.Confidence > 100 {
		return nil, &MalformedFrame{Kind: KindTradeDecision, Reason: "confidence out of range [0,100]"}
	}
	b := make([]byte, sizeTradeDecision)
	b[0] = byte(KindTradeDecision)
	copy(b[1:33], m.Mint[:])
	b[33] = byte(m.Side)
	binary.LittleEndian.PutUint64(b[34:42], m.SizeInBaseUnits)
	binary.LittleEndian.PutUint16(b[42:44], m.SlippageBps)
	b[44] = m.Confidence
	return b, nil
}

// DecodeTradeDecision decodes a TradeDecision.
func DecodeTradeDecision(b []byte) (TradeDecision, error) {
	var m TradeDecision
	if len(b) != sizeTradeDecision {
		return m, &MalformedFrame{Kind: KindTradeDecision, Reason: fmt.Sprintf("want %d bytes, got %d", sizeTradeDecision, len(b))}
	}
	side := Side(b[33])
	if !side.valid() {
		return m, &MalformedFrame{Kind: KindTradeDecision, Reason: "side out of range"}
	}
	if b[44] > 100 {
		return m, &MalformedFrame{Kind: KindTradeDecision, Reason: "confidence out of range [0,100]"}
	}
	m.Mint = ids.MintFromBytes(b[1:33])
	m.Side = side
	m.SizeInBaseUnits = binary.LittleEndian.Uint64(b[34:42])
	m.SlippageBps = binary.LittleEndian.Uint16(b[42:44])
	m.Confidence = b[44]
	return m, nil
}

// KindOf returns the datagram kind from the leading byte, or false if b is
// empty.
func KindOf(b []byte) (Kind, bool) {
	if len(b) == 0 {
		return 0, false
	}
	return Kind(b[0]), true
}

func float32bits(f float32) uint32     { return math.Float32bits(f) }
func float32frombits(u uint32) float32 { return math.Float32frombits(u) }
