// Package ids defines the fixed-width identifiers used across the Brain:
// 32-byte mint and wallet keys, matching Solana's public key format.
package ids

import "github.com/mr-tron/base58"

// Mint identifies a token by its 32-byte public key.
type Mint [32]byte

// String renders the canonical base58 form used in logs and audit records.
func (m Mint) String() string {
	return base58.Encode(m[:])
}

// IsZero reports whether m is the zero mint (no token).
func (m Mint) IsZero() bool {
	return m == Mint{}
}

// Wallet identifies an account by its 32-byte public key.
type Wallet [32]byte

// String renders the canonical base58 form used in logs and audit records.
func (w Wallet) String() string {
	return base58.Encode(w[:])
}

// IsZero reports whether w is the zero wallet (no wallet context).
func (w Wallet) IsZero() bool {
	return w == Wallet{}
}

// MintFromBytes copies b into a Mint. b must be exactly 32 bytes.
func MintFromBytes(b []byte) (m Mint) {
	copy(m[:], b)
	return m
}

// WalletFromBytes copies b into a Wallet. b must be exactly 32 bytes.
func WalletFromBytes(b []byte) (w Wallet) {
	copy(w[:], b)
	return w
}
