package pumpportal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"pump-listener/internal/domain"
)

// ErrMalformedMessage is returned when a frame is not a JSON object, or a
// create frame carries a non-numeric solAmount.
var ErrMalformedMessage = errors.New("malformed message")

// Parser turns raw feed frames into token creation events.
type Parser struct {
	linkBase string
}

// NewParser creates a parser. An empty linkBase uses domain.DefaultLinkBase.
func NewParser(linkBase string) *Parser {
	if linkBase == "" {
		linkBase = domain.DefaultLinkBase
	}
	return &Parser{linkBase: linkBase}
}

// Parse decodes one frame.
// Returns (event, nil) for create frames, (nil, nil) for frames that should be
// discarded, and an error wrapping ErrMalformedMessage for undecodable frames.
//
// Text attributes of any scalar type are kept in their JSON text form, so a
// numeric name still yields an event.
func (p *Parser) Parse(data []byte) (*domain.TokenCreationEvent, error) {
	var msg map[string]json.RawMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	var txType string
	if raw, ok := msg[fieldTxType]; !ok || json.Unmarshal(raw, &txType) != nil || txType != domain.TxTypeCreate {
		return nil, nil
	}

	solAmount, err := numberField(msg, fieldSolAmount)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMessage, fieldSolAmount, err)
	}

	event := domain.NewTokenCreationEvent(domain.TokenCreationFields{
		Name:            textField(msg, fieldName),
		Symbol:          textField(msg, fieldSymbol),
		Mint:            textField(msg, fieldMint),
		SolAmount:       solAmount,
		TraderPublicKey: textField(msg, fieldTraderPublicKey),
	}, p.linkBase)

	event.Signature = deref(textField(msg, fieldSignature))
	event.URI = deref(textField(msg, fieldURI))
	event.BondingCurveKey = deref(textField(msg, fieldBondingCurveKey))
	event.Pool = deref(textField(msg, fieldPool))
	// extras are best effort: a non-numeric value is dropped
	event.InitialBuy, _ = numberField(msg, fieldInitialBuy)
	event.MarketCapSol, _ = numberField(msg, fieldMarketCapSol)

	return &event, nil
}

// textField returns a string attribute, or the JSON text of any other value.
// Absent and null attributes return nil.
func textField(msg map[string]json.RawMessage, key string) *string {
	raw, ok := msg[key]
	if !ok || isNull(raw) {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		s = string(raw)
	} else {
		s = buf.String()
	}
	return &s
}

// numberField returns a numeric attribute. Absent and null attributes return nil.
func numberField(msg map[string]json.RawMessage, key string) (*float64, error) {
	raw, ok := msg[key]
	if !ok || isNull(raw) {
		return nil, nil
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
