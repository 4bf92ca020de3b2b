package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeEventID computes a deterministic event_id using SHA256.
// Formula: SHA256(mint|creator|signature)
// The same launch redelivered after a reconnect maps to the same ID.
// Without a signature there is nothing to dedupe on, so receivedAt (ms)
// joins the hash: SHA256(mint|creator||receivedAt).
// Returns hex-encoded hash (64 characters).
func ComputeEventID(mint, creator, signature string, receivedAt int64) string {
	data := fmt.Sprintf("%s|%s|%s", mint, creator, signature)
	if signature == "" {
		data = fmt.Sprintf("%s|%d", data, receivedAt)
	}

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
