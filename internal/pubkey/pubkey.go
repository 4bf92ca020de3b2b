// Package pubkey inspects base58 Solana addresses.
package pubkey

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Size is the byte length of a Solana public key.
const Size = 32

// ErrInvalidKey is returned when an address is not a 32-byte base58 key.
var ErrInvalidKey = errors.New("invalid public key")

// Decode decodes a base58 address into its 32 raw bytes.
func Decode(addr string) ([]byte, error) {
	if addr == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	b, err := base58.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(b) != Size {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidKey, len(b))
	}
	return b, nil
}

// IsValid reports whether addr decodes to a 32-byte key.
func IsValid(addr string) bool {
	_, err := Decode(addr)
	return err == nil
}

// IsOnCurve reports whether addr is a point on the ed25519 curve.
// Wallet keys are on the curve; program derived addresses are not.
func IsOnCurve(addr string) bool {
	b, err := Decode(addr)
	if err != nil {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(b)
	return err == nil
}
