package pumpportal

// MethodSubscribeNewToken subscribes to token creation events.
const MethodSubscribeNewToken = "subscribeNewToken"

// SubscribeRequest is the single command sent after connecting.
type SubscribeRequest struct {
	Method string `json:"method"`
}

// NewTokenSubscription returns the token creation subscription command.
func NewTokenSubscription() SubscribeRequest {
	return SubscribeRequest{Method: MethodSubscribeNewToken}
}

// Feed message fields. Every field is optional and loosely typed; the
// parser decodes them one at a time.
const (
	fieldTxType          = "txType"
	fieldName            = "name"
	fieldSymbol          = "symbol"
	fieldMint            = "mint"
	fieldSolAmount       = "solAmount"
	fieldTraderPublicKey = "traderPublicKey"

	fieldSignature       = "signature"
	fieldURI             = "uri"
	fieldBondingCurveKey = "bondingCurveKey"
	fieldPool            = "pool"
	fieldInitialBuy      = "initialBuy"
	fieldMarketCapSol    = "marketCapSol"
)
