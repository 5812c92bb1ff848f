package algorand

import (
	"crypto/ed25519"

	algotypes "github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/rs/zerolog"

	"github.com/t402-io/x402-facilitator/noncestore"
	x402 "github.com/t402-io/x402-facilitator"
)

// ExactPayload is the Algorand variant of ExactPaymentPayload (§3): an
// ordered atomic group plus the index of the client-signed payment
// transaction within it.
type ExactPayload struct {
	PaymentGroup []string `json:"paymentGroup"` // base64(msgpack(transaction))
	PaymentIndex int      `json:"paymentIndex"`
}

// verifyResult is the internal outcome of the pure verification algorithm,
// shared by Verify and the first half of Settle.
type verifyResult struct {
	Payer         string
	FeeTxn        algotypes.Transaction
	SignedPayment algotypes.SignedTxn
	GroupID       algotypes.Digest
	Amount        uint64
	Recipient     string
	CurrentRound  uint64
}

// Provider implements x402.ChainProvider for a single Algorand network.
type Provider struct {
	network     x402.Network
	usdcAssetID uint64
	account     algotypes.Address
	privateKey  ed25519.PrivateKey
	algod       AlgodClient
	nonces      noncestore.Store // optional; nil disables replay recording
	log         zerolog.Logger
}

// Config configures one Provider instance.
type Config struct {
	Network     x402.Network
	USDCAssetID uint64
	Account     algotypes.Address
	PrivateKey  ed25519.PrivateKey
	Algod       AlgodClient
	NonceStore  noncestore.Store
	Log         zerolog.Logger
}

// NewProvider builds a Provider from Config.
func NewProvider(cfg Config) *Provider {
	return &Provider{
		network:     cfg.Network,
		usdcAssetID: cfg.USDCAssetID,
		account:     cfg.Account,
		privateKey:  cfg.PrivateKey,
		algod:       cfg.Algod,
		nonces:      cfg.NonceStore,
		log:         cfg.Log,
	}
}

func (p *Provider) Network() x402.Network { return p.network }

func (p *Provider) Supported() x402.SupportedPaymentKindsResponse {
	return x402.SupportedPaymentKindsResponse{
		Network:       p.network,
		Scheme:        "exact",
		X402Version:   2,
		SignerAddress: p.account.String(),
		Extra: map[string]any{
			"feePayer": p.account.String(),
			"tokens":   []uint64{p.usdcAssetID},
		},
	}
}
