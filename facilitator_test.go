package x402

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type fakeProvider struct {
	network    Network
	verifyResp *VerifyResponse
	verifyErr  error
	settleResp *SettleResponse
	settleErr  error
}

func (p *fakeProvider) Network() Network { return p.network }

func (p *fakeProvider) Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error) {
	return p.verifyResp, p.verifyErr
}

func (p *fakeProvider) Settle(ctx context.Context, req SettleRequest) (*SettleResponse, error) {
	return p.settleResp, p.settleErr
}

func (p *fakeProvider) Supported() SupportedPaymentKindsResponse {
	return SupportedPaymentKindsResponse{Network: p.network, Scheme: "exact", X402Version: 2, SignerAddress: "0xsigner"}
}

func newTestRequest(network Network) VerifyRequest {
	return VerifyRequest{
		PaymentPayload:      PaymentPayload{Accepted: PaymentRequirements{Network: string(network)}},
		PaymentRequirements: PaymentRequirements{Network: string(network)},
	}
}

func TestFacilitator_Verify_DispatchesByExactNetwork(t *testing.T) {
	f := NewFacilitator(zerolog.Nop())
	provider := &fakeProvider{network: "eip155:8453", verifyResp: &VerifyResponse{Valid: true}}
	f.Register(provider)

	resp, err := f.Verify(context.Background(), newTestRequest("eip155:8453"))
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Valid {
		t.Error("expected valid response")
	}
}

func TestFacilitator_Verify_UnsupportedNetwork(t *testing.T) {
	f := NewFacilitator(zerolog.Nop())
	_, err := f.Verify(context.Background(), newTestRequest("eip155:999"))
	var fe *FacilitatorError
	if !errors.As(err, &fe) || fe.Code != ErrUnsupportedNetwork {
		t.Fatalf("expected UnsupportedNetwork, got %v", err)
	}
}

func TestFacilitator_Verify_NetworkMismatch(t *testing.T) {
	f := NewFacilitator(zerolog.Nop())
	provider := &fakeProvider{network: "eip155:8453", verifyResp: &VerifyResponse{Valid: true}}
	f.Register(provider)

	req := VerifyRequest{
		PaymentPayload:      PaymentPayload{Accepted: PaymentRequirements{Network: "eip155:1"}},
		PaymentRequirements: PaymentRequirements{Network: "eip155:8453"},
	}
	_, err := f.Verify(context.Background(), req)
	var fe *FacilitatorError
	if !errors.As(err, &fe) || fe.Code != ErrNetworkMismatch {
		t.Fatalf("expected NetworkMismatch, got %v", err)
	}
}

func TestFacilitator_Verify_BeforeHookAborts(t *testing.T) {
	f := NewFacilitator(zerolog.Nop())
	provider := &fakeProvider{network: "eip155:8453", verifyResp: &VerifyResponse{Valid: true}}
	f.Register(provider)
	f.OnBeforeVerify(func(vctx VerifyContext) (*BeforeHookResult, error) {
		return &BeforeHookResult{Abort: true, Reason: "rate limited"}, nil
	})

	resp, err := f.Verify(context.Background(), newTestRequest("eip155:8453"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Valid || resp.InvalidReason != "rate limited" {
		t.Errorf("expected aborted response, got %+v", resp)
	}
}

func TestFacilitator_Verify_FailureHookRecovers(t *testing.T) {
	f := NewFacilitator(zerolog.Nop())
	provider := &fakeProvider{network: "eip155:8453", verifyErr: NewFacilitatorError(ErrRpcError, errors.New("boom"))}
	f.Register(provider)
	f.OnVerifyFailure(func(fctx VerifyFailureContext) (*VerifyFailureHookResult, error) {
		return &VerifyFailureHookResult{Recovered: true, Result: &VerifyResponse{Valid: false, InvalidReason: "recovered"}}, nil
	})

	resp, err := f.Verify(context.Background(), newTestRequest("eip155:8453"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.InvalidReason != "recovered" {
		t.Errorf("expected recovered response, got %+v", resp)
	}
}

func TestFacilitator_Settle_DispatchesAndReturnsSuccess(t *testing.T) {
	f := NewFacilitator(zerolog.Nop())
	provider := &fakeProvider{network: "algorand-testnet", settleResp: &SettleResponse{Success: true, Network: "algorand-testnet"}}
	f.Register(provider)

	req := SettleRequest{
		PaymentPayload:      PaymentPayload{Accepted: PaymentRequirements{Network: "algorand-testnet"}},
		PaymentRequirements: PaymentRequirements{Network: "algorand-testnet"},
	}
	resp, err := f.Settle(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Error("expected success")
	}
}

func TestFacilitator_GetSupported_AggregatesAllProviders(t *testing.T) {
	f := NewFacilitator(zerolog.Nop())
	f.Register(&fakeProvider{network: "eip155:8453"})
	f.Register(&fakeProvider{network: "algorand-mainnet"})

	supported := f.GetSupported()
	if len(supported.Kinds) != 2 {
		t.Fatalf("expected 2 kinds, got %d", len(supported.Kinds))
	}
	if len(supported.Signers["eip155"]) != 1 || len(supported.Signers["algorand-mainnet"]) != 1 {
		t.Errorf("unexpected signer grouping: %+v", supported.Signers)
	}
}
