package x402

import "context"

// ChainProvider is the capability set every chain-specific facilitator
// implements. The façade addresses providers polymorphically over this
// interface and dispatches by exact Network match — spec invariant: every
// provider declares exactly one network.
type ChainProvider interface {
	// Network returns the single network this provider serves.
	Network() Network

	// Verify checks a payment payload against requirements without
	// mutating chain state.
	Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error)

	// Settle re-verifies, then signs and submits. On submission failure it
	// returns a SettleResponse with Success=false rather than an error —
	// the payer remains attributable.
	Settle(ctx context.Context, req SettleRequest) (*SettleResponse, error)

	// Supported is pure and never fails.
	Supported() SupportedPaymentKindsResponse
}
