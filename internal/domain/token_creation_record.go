package domain

// TokenCreationRecord is the stored form of a TokenCreationEvent.
// Corresponds to token_creations table in PostgreSQL and ClickHouse.
type TokenCreationRecord struct {
	EventID          string  // PK: SHA256(mint|creator|signature)
	Name             string  // token name or N/A
	Symbol           string  // token symbol or N/A
	Mint             string  // mint address or N/A
	CreatorSolAmount float64 // SOL spent by the creator
	CreatorPublicKey string  // creator wallet or N/A
	Link             string  // pump.fun page
	Signature        *string // creation tx signature (nullable)
	URI              *string // metadata URI (nullable)
	MintValid        bool    // mint decodes to a 32-byte base58 key
	CreatorOnCurve   bool    // creator key is an ed25519 point (wallet, not PDA)
	ReceivedAt       int64   // when the frame was processed (ms)
	CreatedAt        int64   // record creation timestamp (ms)
}

// Event converts the record back to the event it was built from.
// Feed extras other than signature and URI are not stored.
func (r *TokenCreationRecord) Event() TokenCreationEvent {
	e := TokenCreationEvent{
		Name:             r.Name,
		Symbol:           r.Symbol,
		MintAddress:      r.Mint,
		CreatorSolAmount: SolAmount(r.CreatorSolAmount),
		CreatorPublicKey: r.CreatorPublicKey,
		Link:             r.Link,
	}
	if r.Signature != nil {
		e.Signature = *r.Signature
	}
	if r.URI != nil {
		e.URI = *r.URI
	}
	return e
}
