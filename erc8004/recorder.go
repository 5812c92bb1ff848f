package erc8004

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// ContractCaller is the subset of an EVM signer needed to resolve an agent id
// and submit feedback. mechanisms/evm.Signer satisfies this structurally.
type ContractCaller interface {
	ReadContract(ctx context.Context, contractAddr common.Address, abiJSON, method string, args ...interface{}) ([]interface{}, error)
	WriteContract(ctx context.Context, contractAddr common.Address, abiJSON, method string, args ...interface{}) (common.Hash, error)
}

// Recorder submits ERC-8004 reputation feedback for settlements whose
// PaymentRequirements.extra opts in via the "8004-reputation" extension.
// One ContractCaller is registered per EVM network; networks without a
// registered caller, or without a configured registry deployment, are
// silently skipped rather than treated as an error.
type Recorder struct {
	callers map[string]ContractCaller
	log     zerolog.Logger
}

// NewRecorder builds an empty Recorder. Register a caller per network before
// settlements start flowing.
func NewRecorder(log zerolog.Logger) *Recorder {
	return &Recorder{callers: make(map[string]ContractCaller), log: log}
}

// Register associates an EVM network with the caller used to submit
// feedback transactions for it.
func (r *Recorder) Register(network string, caller ContractCaller) {
	r.callers[network] = caller
}

// RecordSettlement is invoked by the façade only on settlement success (spec
// §4.5). When the requesting resource opted in, a registry is configured for
// the network and a caller is registered for it, it builds a ProofOfPayment,
// resolves the payee's agent id and submits feedback on-chain; otherwise it
// returns without doing anything. Failures are logged, never
// propagated: reputation submission must never unwind a settled payment.
func (r *Recorder) RecordSettlement(ctx context.Context, network string, extra map[string]any, txHash common.Hash, blockNumber uint64, payer, payee, amount, token string, blockTimestamp int64) {
	ext, ok := ParseReputationExtension(extra)
	if !ok || !ext.IncludeProof {
		return
	}

	contracts := Resolve(network)
	if !contracts.Configured() {
		return
	}
	caller, ok := r.callers[network]
	if !ok {
		r.log.Debug().Str("network", network).Msg("erc8004: no registered caller for network, skipping feedback")
		return
	}

	proof := NewProofOfPayment(txHash, blockNumber, network, payer, payee, amount, token, blockTimestamp)

	agentID, err := r.resolveAgentID(ctx, caller, contracts.Identity, payee)
	if err != nil {
		r.log.Warn().Err(err).Str("network", network).Str("payee", payee).Msg("erc8004: agent id lookup failed, skipping feedback")
		return
	}

	if _, err := caller.WriteContract(ctx, contracts.Reputation, reputationRegistryABI, "submitFeedback", agentID, proof.PaymentHash, ""); err != nil {
		r.log.Warn().Err(err).Str("network", network).Str("paymentHash", common.Bytes2Hex(proof.PaymentHash[:])).Msg("erc8004: feedback submission failed")
		return
	}
	r.log.Info().Str("network", network).Str("paymentHash", common.Bytes2Hex(proof.PaymentHash[:])).Msg("erc8004: feedback submitted")
}

func (r *Recorder) resolveAgentID(ctx context.Context, caller ContractCaller, identityRegistry common.Address, payee string) (*big.Int, error) {
	results, err := caller.ReadContract(ctx, identityRegistry, identityRegistryABI, "agentIdOf", common.HexToAddress(payee))
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return big.NewInt(0), nil
	}
	agentID, _ := results[0].(*big.Int)
	if agentID == nil {
		agentID = big.NewInt(0)
	}
	return agentID, nil
}
