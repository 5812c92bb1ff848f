package x402

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Facilitator dispatches verify/settle/supported calls to the ChainProvider
// registered for the request's declared network. Unlike the multi-scheme,
// wildcard-matching dispatch this package is descended from, every provider
// here declares exactly one network, so dispatch is a map lookup.
type Facilitator struct {
	mu        sync.RWMutex
	providers map[Network]ChainProvider
	log       zerolog.Logger

	beforeVerify []BeforeVerifyHook
	afterVerify  []AfterVerifyHook
	onVerifyFail []OnVerifyFailureHook
	beforeSettle []BeforeSettleHook
	afterSettle  []AfterSettleHook
	onSettleFail []OnSettleFailureHook
}

// NewFacilitator builds an empty façade. Pass zerolog.Nop() for silent operation.
func NewFacilitator(log zerolog.Logger) *Facilitator {
	return &Facilitator{
		providers: make(map[Network]ChainProvider),
		log:       log,
	}
}

// Register adds a provider for its declared network, overwriting any
// previous registration for that network.
func (f *Facilitator) Register(p ChainProvider) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providers[p.Network()] = p
}

func (f *Facilitator) OnBeforeVerify(h BeforeVerifyHook)         { f.beforeVerify = append(f.beforeVerify, h) }
func (f *Facilitator) OnAfterVerify(h AfterVerifyHook)           { f.afterVerify = append(f.afterVerify, h) }
func (f *Facilitator) OnVerifyFailure(h OnVerifyFailureHook)     { f.onVerifyFail = append(f.onVerifyFail, h) }
func (f *Facilitator) OnBeforeSettle(h BeforeSettleHook)         { f.beforeSettle = append(f.beforeSettle, h) }
func (f *Facilitator) OnAfterSettle(h AfterSettleHook)           { f.afterSettle = append(f.afterSettle, h) }
func (f *Facilitator) OnSettleFailure(h OnSettleFailureHook)     { f.onSettleFail = append(f.onSettleFail, h) }

func (f *Facilitator) providerFor(network Network) (ChainProvider, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p, ok := f.providers[network]
	return p, ok
}

// Verify routes a VerifyRequest to the provider registered for the
// requirements' network, after checking that the payload's accepted network
// is the same, running lifecycle hooks around the call.
func (f *Facilitator) Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error) {
	network := Network(req.PaymentRequirements.Network)
	vctx := VerifyContext{Ctx: ctx, Request: req}

	for _, hook := range f.beforeVerify {
		result, err := hook(vctx)
		if err != nil {
			f.log.Warn().Err(err).Msg("beforeVerify hook error")
			continue
		}
		if result != nil && result.Abort {
			return &VerifyResponse{Valid: false, InvalidReason: result.Reason}, nil
		}
	}

	provider, ok := f.providerFor(network)
	if !ok {
		err := NewFacilitatorError(ErrUnsupportedNetwork, fmt.Errorf("no provider for network %q", network))
		return f.handleVerifyFailure(vctx, err)
	}
	if Network(req.PaymentPayload.Accepted.Network) != provider.Network() {
		err := NewFacilitatorError(ErrNetworkMismatch, fmt.Errorf("payload network %q != provider network %q", req.PaymentPayload.Accepted.Network, provider.Network()))
		return f.handleVerifyFailure(vctx, err)
	}

	result, err := provider.Verify(ctx, req)
	if err != nil {
		return f.handleVerifyFailure(vctx, err)
	}

	rctx := VerifyResultContext{VerifyContext: vctx, Result: result}
	for _, hook := range f.afterVerify {
		if hookErr := hook(rctx); hookErr != nil {
			f.log.Warn().Err(hookErr).Msg("afterVerify hook error")
		}
	}
	return result, nil
}

func (f *Facilitator) handleVerifyFailure(vctx VerifyContext, err error) (*VerifyResponse, error) {
	fctx := VerifyFailureContext{VerifyContext: vctx, Error: err}
	for _, hook := range f.onVerifyFail {
		recovery, hookErr := hook(fctx)
		if hookErr != nil {
			f.log.Warn().Err(hookErr).Msg("onVerifyFailure hook error")
			continue
		}
		if recovery != nil && recovery.Recovered {
			return recovery.Result, nil
		}
	}
	return nil, err
}

// Settle routes a SettleRequest to the provider registered for the
// requirements' network, after checking that the payload's accepted network
// is the same, running lifecycle hooks around the call.
func (f *Facilitator) Settle(ctx context.Context, req SettleRequest) (*SettleResponse, error) {
	network := Network(req.PaymentRequirements.Network)
	sctx := SettleContext{Ctx: ctx, Request: req}

	for _, hook := range f.beforeSettle {
		result, err := hook(sctx)
		if err != nil {
			f.log.Warn().Err(err).Msg("beforeSettle hook error")
			continue
		}
		if result != nil && result.Abort {
			return &SettleResponse{Success: false, ErrorReason: result.Reason, Network: network}, nil
		}
	}

	provider, ok := f.providerFor(network)
	if !ok {
		err := NewFacilitatorError(ErrUnsupportedNetwork, fmt.Errorf("no provider for network %q", network))
		return f.handleSettleFailure(sctx, err)
	}
	if Network(req.PaymentPayload.Accepted.Network) != provider.Network() {
		err := NewFacilitatorError(ErrNetworkMismatch, fmt.Errorf("payload network %q != provider network %q", req.PaymentPayload.Accepted.Network, provider.Network()))
		return f.handleSettleFailure(sctx, err)
	}

	result, err := provider.Settle(ctx, req)
	if err != nil {
		return f.handleSettleFailure(sctx, err)
	}

	rctx := SettleResultContext{SettleContext: sctx, Result: result}
	for _, hook := range f.afterSettle {
		if hookErr := hook(rctx); hookErr != nil {
			f.log.Warn().Err(hookErr).Msg("afterSettle hook error")
		}
	}
	return result, nil
}

func (f *Facilitator) handleSettleFailure(sctx SettleContext, err error) (*SettleResponse, error) {
	fctx := SettleFailureContext{SettleContext: sctx, Error: err}
	for _, hook := range f.onSettleFail {
		recovery, hookErr := hook(fctx)
		if hookErr != nil {
			f.log.Warn().Err(hookErr).Msg("onSettleFailure hook error")
			continue
		}
		if recovery != nil && recovery.Recovered {
			return recovery.Result, nil
		}
	}
	return nil, err
}

// GetSupported aggregates every registered provider's SupportedPaymentKindsResponse.
func (f *Facilitator) GetSupported() SupportedResponse {
	f.mu.RLock()
	defer f.mu.RUnlock()

	kinds := make([]SupportedKind, 0, len(f.providers))
	signers := make(map[string][]string)
	for _, p := range f.providers {
		sk := p.Supported()
		kinds = append(kinds, SupportedKind{
			T402Version: sk.X402Version,
			Scheme:      sk.Scheme,
			Network:     string(sk.Network),
			Extra:       sk.Extra,
		})
		family := sk.Network.Family()
		signers[family] = append(signers[family], sk.SignerAddress)
	}
	return SupportedResponse{Kinds: kinds, Signers: signers}
}
