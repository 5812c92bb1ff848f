// Package x402 implements the facilitator side of the x402 micropayment
// protocol: providers verify and settle chain-specific payment payloads,
// the façade dispatches by network, and settlement success feeds optional
// replay protection and ERC-8004 reputation submission.
package x402

// PaymentRequirements is the v2 payment-requirements wire shape: what a
// resource server advertised and what a provider re-checks at verify/settle
// time.
type PaymentRequirements struct {
	Scheme            string         `json:"scheme"`
	Network           string         `json:"network"`
	Asset             string         `json:"asset"`
	Amount            string         `json:"amount"`
	PayTo             string         `json:"payTo"`
	MaxTimeoutSeconds int            `json:"maxTimeoutSeconds"`
	Extra             map[string]any `json:"extra,omitempty"`
}

// PaymentPayload is the v2 payment-payload wire shape: the chain-specific
// payload plus the PaymentRequirements the client committed to when it
// built the payload, carried alongside it so a mismatch can be detected
// before any chain-specific decoding happens.
type PaymentPayload struct {
	T402Version int                    `json:"t402Version"`
	Payload     map[string]interface{} `json:"payload"`
	Accepted    PaymentRequirements    `json:"accepted"`
}

// SupportedKind describes one (network, scheme, version) tuple a provider accepts.
type SupportedKind struct {
	T402Version int            `json:"t402Version"`
	Scheme      string         `json:"scheme"`
	Network     string         `json:"network"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// SupportedResponse aggregates every provider's supported kinds.
type SupportedResponse struct {
	Kinds      []SupportedKind     `json:"kinds"`
	Extensions []string            `json:"extensions"`
	Signers    map[string][]string `json:"signers"`
}

// MixedAddress is a tagged union over chain address encodings. The tag must
// match the network of the payload the address came from.
type MixedAddress struct {
	Network Network `json:"network"`
	Address string  `json:"address"`
}

func (a MixedAddress) String() string {
	return a.Address
}

// TransactionHash is a tagged union over chain transaction identifiers, one
// variant per chain family.
type TransactionHash struct {
	Network Network `json:"network"`
	Hash    string  `json:"hash"`
}

func (h TransactionHash) String() string {
	return h.Hash
}

// VerifyRequest carries a chain-specific payment payload to verify against
// the requirements the resource server originally advertised.
type VerifyRequest struct {
	PaymentPayload      PaymentPayload      `json:"paymentPayload"`
	PaymentRequirements PaymentRequirements `json:"paymentRequirements"`
}

// SettleRequest mirrors VerifyRequest; settlement always re-verifies first.
type SettleRequest struct {
	PaymentPayload      PaymentPayload      `json:"paymentPayload"`
	PaymentRequirements PaymentRequirements `json:"paymentRequirements"`
}

// VerifyResponse is the outcome of a verify call. InvalidReason is populated
// only when Valid is false.
type VerifyResponse struct {
	Valid         bool         `json:"valid"`
	InvalidReason string       `json:"invalidReason,omitempty"`
	Payer         MixedAddress `json:"payer,omitempty"`
}

// SettleResponse is the outcome of a settle call. Success=false with a
// populated Payer and empty Transaction means settlement failed before a
// transaction id was obtained; the payer remains attributable even on failure.
type SettleResponse struct {
	Success     bool            `json:"success"`
	ErrorReason string          `json:"errorReason,omitempty"`
	Payer       MixedAddress    `json:"payer,omitempty"`
	Transaction TransactionHash `json:"transaction,omitempty"`
	Network     Network         `json:"network"`
}

// SupportedPaymentKindsResponse is the pure, always-succeeding description
// of what a single provider supports.
type SupportedPaymentKindsResponse struct {
	Network       Network        `json:"network"`
	Scheme        string         `json:"scheme"`
	X402Version   int            `json:"x402Version"`
	SignerAddress string         `json:"signerAddress"`
	Extra         map[string]any `json:"extra,omitempty"`
}
