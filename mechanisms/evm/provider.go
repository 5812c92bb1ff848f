package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	x402 "github.com/t402-io/x402-facilitator"
	"github.com/t402-io/x402-facilitator/noncestore"
)

const transferWithAuthorizationABI = `[{"constant":false,"inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"value","type":"uint256"},{"name":"validAfter","type":"uint256"},{"name":"validBefore","type":"uint256"},{"name":"nonce","type":"bytes32"},{"name":"v","type":"uint8"},{"name":"r","type":"bytes32"},{"name":"s","type":"bytes32"}],"name":"transferWithAuthorization","outputs":[],"type":"function"},{"constant":true,"inputs":[{"name":"authorizer","type":"address"},{"name":"nonce","type":"bytes32"}],"name":"authorizationState","outputs":[{"name":"","type":"bool"}],"type":"function"}]`

// AssetInfo describes an ERC-20 token this provider accepts.
type AssetInfo struct {
	Address common.Address
	Name    string
	Version string
}

// Provider implements x402.ChainProvider for one EVM network using the
// EIP-3009 "exact" scheme: gasless transferWithAuthorization.
type Provider struct {
	network x402.Network
	signer  Signer
	asset   AssetInfo
	nonces  noncestore.Store
	log     zerolog.Logger
}

// Config configures one Provider instance.
type Config struct {
	Network    x402.Network
	Signer     Signer
	Asset      AssetInfo
	NonceStore noncestore.Store
	Log        zerolog.Logger
}

func NewProvider(cfg Config) *Provider {
	return &Provider{network: cfg.Network, signer: cfg.Signer, asset: cfg.Asset, nonces: cfg.NonceStore, log: cfg.Log}
}

func (p *Provider) Network() x402.Network { return p.network }

func (p *Provider) Supported() x402.SupportedPaymentKindsResponse {
	return x402.SupportedPaymentKindsResponse{
		Network:       p.network,
		Scheme:        "exact",
		X402Version:   2,
		SignerAddress: p.signer.Address().Hex(),
		Extra: map[string]any{
			"feePayer": p.signer.Address().Hex(),
			"tokens":   []string{p.asset.Address.Hex()},
		},
	}
}

type exactPayload struct {
	Authorization Authorization
	Signature     []byte
}

func payloadFromMap(m map[string]interface{}) (exactPayload, error) {
	var out exactPayload
	auth, ok := m["authorization"].(map[string]interface{})
	if !ok {
		return out, fmt.Errorf("missing authorization")
	}
	sigHex, _ := m["signature"].(string)
	if sigHex == "" {
		return out, fmt.Errorf("missing signature")
	}

	from, err := addressField(auth, "from")
	if err != nil {
		return out, err
	}
	to, err := addressField(auth, "to")
	if err != nil {
		return out, err
	}
	value, err := bigIntField(auth, "value")
	if err != nil {
		return out, err
	}
	validAfter, err := bigIntField(auth, "validAfter")
	if err != nil {
		return out, err
	}
	validBefore, err := bigIntField(auth, "validBefore")
	if err != nil {
		return out, err
	}
	nonceHex, _ := auth["nonce"].(string)
	nonceBytes := common.FromHex(nonceHex)
	var nonce [32]byte
	copy(nonce[32-len(nonceBytes):], nonceBytes)

	sigBytes := common.FromHex(sigHex)
	out.Authorization = Authorization{From: from, To: to, Value: value, ValidAfter: validAfter, ValidBefore: validBefore, Nonce: nonce}
	out.Signature = sigBytes
	return out, nil
}

func addressField(m map[string]interface{}, key string) (common.Address, error) {
	s, ok := m[key].(string)
	if !ok || !strings.HasPrefix(s, "0x") || len(s) != 42 {
		return common.Address{}, x402.NewFacilitatorError(x402.ErrInvalidAddress, fmt.Errorf("invalid address field %q", key))
	}
	return common.HexToAddress(s), nil
}

func bigIntField(m map[string]interface{}, key string) (*big.Int, error) {
	switch v := m[key].(type) {
	case string:
		n, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return nil, fmt.Errorf("invalid integer field %q", key)
		}
		return n, nil
	case float64:
		return big.NewInt(int64(v)), nil
	default:
		return nil, fmt.Errorf("missing integer field %q", key)
	}
}

// Verify checks scheme/network match, signature validity, sufficiency of
// amount, and that the authorization has not already been consumed
// on-chain, without submitting anything.
func (p *Provider) Verify(ctx context.Context, req x402.VerifyRequest) (*x402.VerifyResponse, error) {
	if x402.Network(req.PaymentPayload.Accepted.Network) != p.network {
		return nil, x402.NewFacilitatorError(x402.ErrNetworkMismatch, fmt.Errorf("payload network %q != provider network %q", req.PaymentPayload.Accepted.Network, p.network))
	}
	if req.PaymentRequirements.Scheme != "exact" {
		return nil, x402.NewFacilitatorError(x402.ErrUnsupportedNetwork, fmt.Errorf("unsupported scheme %q", req.PaymentRequirements.Scheme))
	}

	payload, err := payloadFromMap(req.PaymentPayload.Payload)
	if err != nil {
		return &x402.VerifyResponse{Valid: false, InvalidReason: string(x402.ErrInvalidEncoding)}, nil
	}
	if !strings.EqualFold(payload.Authorization.To.Hex(), req.PaymentRequirements.PayTo) {
		return &x402.VerifyResponse{Valid: false, InvalidReason: string(x402.ErrInvalidAddress)}, nil
	}

	required, ok := new(big.Int).SetString(req.PaymentRequirements.Amount, 10)
	if !ok {
		return &x402.VerifyResponse{Valid: false, InvalidReason: string(x402.ErrInvalidEncoding)}, nil
	}
	if payload.Authorization.Value.Cmp(required) < 0 {
		return &x402.VerifyResponse{Valid: false, InvalidReason: string(x402.ErrInsufficientAmount)}, nil
	}

	used, err := p.authorizationUsed(ctx, payload.Authorization)
	if err != nil {
		return nil, x402.NewFacilitatorError(x402.ErrRpcError, err)
	}
	if used {
		return &x402.VerifyResponse{Valid: false, InvalidReason: string(x402.ErrNonceAlreadyUsed)}, nil
	}

	tokenName, tokenVersion := p.tokenNameVersion(req.PaymentRequirements)
	digest := HashAuthorization(payload.Authorization, tokenName, tokenVersion, p.signer.ChainID(), p.asset.Address)
	signer, err := RecoverSigner(digest, payload.Signature)
	if err != nil || !strings.EqualFold(signer.Hex(), payload.Authorization.From.Hex()) {
		return &x402.VerifyResponse{Valid: false, InvalidReason: string(x402.ErrSignatureInvalid)}, nil
	}

	return &x402.VerifyResponse{
		Valid: true,
		Payer: x402.MixedAddress{Network: p.network, Address: payload.Authorization.From.Hex()},
	}, nil
}

// Settle re-verifies, then calls transferWithAuthorization on-chain and
// waits for the receipt.
func (p *Provider) Settle(ctx context.Context, req x402.SettleRequest) (*x402.SettleResponse, error) {
	verifyResp, err := p.Verify(ctx, x402.VerifyRequest(req))
	if err != nil {
		return nil, err
	}
	if !verifyResp.Valid {
		return nil, x402.NewFacilitatorError(x402.ErrSubmissionFailed, fmt.Errorf("verify failed: %s", verifyResp.InvalidReason))
	}

	payload, err := payloadFromMap(req.PaymentPayload.Payload)
	if err != nil {
		return nil, x402.NewFacilitatorError(x402.ErrInvalidEncoding, err)
	}
	if len(payload.Signature) != 65 {
		return &x402.SettleResponse{Success: false, ErrorReason: string(x402.ErrUnexpectedSettleError), Payer: verifyResp.Payer, Network: p.network}, nil
	}
	v := payload.Signature[64]
	if v < 27 {
		v += 27
	}
	var r, s [32]byte
	copy(r[:], payload.Signature[0:32])
	copy(s[:], payload.Signature[32:64])

	auth := payload.Authorization
	txHash, err := p.signer.WriteContract(ctx, p.asset.Address, transferWithAuthorizationABI, "transferWithAuthorization",
		auth.From, auth.To, auth.Value, auth.ValidAfter, auth.ValidBefore, auth.Nonce, v, r, s)
	if err != nil {
		return &x402.SettleResponse{Success: false, ErrorReason: string(x402.ErrUnexpectedSettleError), Payer: verifyResp.Payer, Network: p.network}, nil
	}

	receipt, err := p.signer.WaitForReceipt(ctx, txHash)
	if err != nil || receipt == nil || receipt.Status != types.ReceiptStatusSuccessful {
		return &x402.SettleResponse{
			Success:     false,
			ErrorReason: string(x402.ErrTransactionNotConfirmed),
			Payer:       verifyResp.Payer,
			Transaction: x402.TransactionHash{Network: p.network, Hash: txHash.Hex()},
			Network:     p.network,
		}, nil
	}

	if p.nonces != nil {
		key := noncestore.EVMKey(string(p.network), auth.From.Hex(), common.Bytes2Hex(auth.Nonce[:]))
		if _, err := p.nonces.CheckAndMarkUsed(ctx, string(p.network), key, 86400); err != nil {
			p.log.Warn().Err(err).Msg("failed to record settled authorization in nonce store")
		}
	}

	return &x402.SettleResponse{
		Success:     true,
		Payer:       verifyResp.Payer,
		Transaction: x402.TransactionHash{Network: p.network, Hash: txHash.Hex()},
		Network:     p.network,
	}, nil
}

func (p *Provider) authorizationUsed(ctx context.Context, auth Authorization) (bool, error) {
	out, err := p.signer.ReadContract(ctx, p.asset.Address, transferWithAuthorizationABI, "authorizationState", auth.From, auth.Nonce)
	if err != nil {
		return false, err
	}
	if len(out) == 0 {
		return false, nil
	}
	used, _ := out[0].(bool)
	return used, nil
}

func (p *Provider) tokenNameVersion(req x402.PaymentRequirements) (string, string) {
	if req.Extra != nil {
		name, _ := req.Extra["tokenName"].(string)
		version, _ := req.Extra["tokenVersion"].(string)
		if name != "" && version != "" {
			return name, version
		}
	}
	if p.asset.Name != "" && p.asset.Version != "" {
		return p.asset.Name, p.asset.Version
	}
	return "USD Coin", "2"
}
