package domain

import (
	"strconv"
	"strings"
)

// TxTypeCreate is the discriminator value marking a token creation frame.
const TxTypeCreate = "create"

// DefaultLinkBase is the pump.fun page prefix used to build event links.
const DefaultLinkBase = "https://pump.fun"

// NotAvailable replaces absent string attributes.
const NotAvailable = "N/A"

// SolAmount is a SOL quantity rendered with two decimal places.
type SolAmount float64

// String renders the amount with exactly two decimal places.
func (a SolAmount) String() string {
	return strconv.FormatFloat(float64(a), 'f', 2, 64)
}

// MarshalText renders the amount as its two-decimal string form.
func (a SolAmount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses a decimal string produced by MarshalText.
func (a *SolAmount) UnmarshalText(text []byte) error {
	v, err := strconv.ParseFloat(string(text), 64)
	if err != nil {
		return err
	}
	*a = SolAmount(v)
	return nil
}

// TokenCreationEvent is a new token launch observed on the feed.
// Absent source fields are replaced with their defaults at construction.
type TokenCreationEvent struct {
	Name             string    `json:"name"`
	Symbol           string    `json:"symbol"`
	MintAddress      string    `json:"mintAddress"`
	CreatorSolAmount SolAmount `json:"creatorSolAmount"`
	CreatorPublicKey string    `json:"creatorPublicKey"`
	Link             string    `json:"link"`

	// Optional feed extras, empty when the frame omits them.
	Signature       string   `json:"signature,omitempty"`
	URI             string   `json:"uri,omitempty"`
	BondingCurveKey string   `json:"bondingCurveKey,omitempty"`
	Pool            string   `json:"pool,omitempty"`
	InitialBuy      *float64 `json:"initialBuy,omitempty"`
	MarketCapSol    *float64 `json:"marketCapSol,omitempty"`
}

// TokenCreationFields holds the optional source attributes of a create frame.
// Nil means the attribute was absent.
type TokenCreationFields struct {
	Name            *string
	Symbol          *string
	Mint            *string
	SolAmount       *float64
	TraderPublicKey *string
}

// NewTokenCreationEvent builds an event applying the documented defaults.
// linkBase is joined with the mint address; an absent mint yields "<base>/".
func NewTokenCreationEvent(f TokenCreationFields, linkBase string) TokenCreationEvent {
	mint := ""
	if f.Mint != nil {
		mint = *f.Mint
	}

	e := TokenCreationEvent{
		Name:             orDefault(f.Name),
		Symbol:           orDefault(f.Symbol),
		MintAddress:      orDefault(f.Mint),
		CreatorPublicKey: orDefault(f.TraderPublicKey),
		Link:             BuildLink(linkBase, mint),
	}
	if f.SolAmount != nil {
		e.CreatorSolAmount = SolAmount(*f.SolAmount)
	}
	return e
}

// BuildLink joins base and mint with a single slash.
func BuildLink(base, mint string) string {
	if base == "" {
		base = DefaultLinkBase
	}
	return strings.TrimRight(base, "/") + "/" + mint
}

func orDefault(s *string) string {
	if s == nil {
		return NotAvailable
	}
	return *s
}
