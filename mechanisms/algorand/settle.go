package algorand

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/crypto"

	x402 "github.com/t402-io/x402-facilitator"
	"github.com/t402-io/x402-facilitator/noncestore"
)

const (
	confirmationPollInterval = 500 * time.Millisecond
	confirmationMaxAttempts  = 20
)

// Settle re-runs verification, signs the fee transaction, reassembles and
// submits the atomic group, and waits for confirmation before recording the
// group-id in the nonce store (§4.2 steps 9-13).
func (p *Provider) Settle(ctx context.Context, req x402.SettleRequest) (*x402.SettleResponse, error) {
	if x402.Network(req.PaymentPayload.Accepted.Network) != p.network {
		return nil, x402.NewFacilitatorError(x402.ErrNetworkMismatch, fmt.Errorf("payload network %q != provider network %q", req.PaymentPayload.Accepted.Network, p.network))
	}

	payload, err := payloadFromMap(req.PaymentPayload.Payload)
	if err != nil {
		return nil, x402.NewFacilitatorError(x402.ErrInvalidEncoding, err)
	}

	result, err := p.verifyAlgorithm(ctx, payload)
	if err != nil {
		return nil, err
	}

	// Step 9: sign group[0] with the facilitator account.
	_, feeSigBytes, err := crypto.SignTransaction(p.privateKey, result.FeeTxn)
	if err != nil {
		return &x402.SettleResponse{
			Success:     false,
			ErrorReason: string(x402.ErrUnexpectedSettleError),
			Payer:       x402.MixedAddress{Network: p.network, Address: result.Payer},
			Network:     p.network,
		}, nil
	}

	// Step 10: reassemble the group in index order; slots other than 0 pass
	// through the client's original signed bytes unchanged.
	submission := make([]byte, 0, len(feeSigBytes)*len(payload.PaymentGroup))
	submission = append(submission, feeSigBytes...)
	for i := 1; i < len(payload.PaymentGroup); i++ {
		raw, decodeErr := base64.StdEncoding.DecodeString(payload.PaymentGroup[i])
		if decodeErr != nil {
			return &x402.SettleResponse{
				Success:     false,
				ErrorReason: string(x402.ErrUnexpectedSettleError),
				Payer:       x402.MixedAddress{Network: p.network, Address: result.Payer},
				Network:     p.network,
			}, nil
		}
		submission = append(submission, raw...)
	}

	// Step 11: submit; submission failures are returned, not raised.
	txID, err := p.algod.SendRawTransaction(ctx, submission)
	if err != nil {
		return &x402.SettleResponse{
			Success:     false,
			ErrorReason: string(x402.ErrUnexpectedSettleError),
			Payer:       x402.MixedAddress{Network: p.network, Address: result.Payer},
			Network:     p.network,
		}, nil
	}

	// Step 12: poll for confirmation. Once a tx id exists, this call must
	// not be unwound by cancellation — confirmation or TransactionNotConfirmed.
	// Both outcomes surface as a structured SettleResponse, never a raised
	// error, per §7's propagation policy.
	confirmedRound, err := p.awaitConfirmation(ctx, txID)
	if err != nil {
		reason := string(x402.AsFacilitatorError(err).Code)
		return &x402.SettleResponse{
			Success:     false,
			ErrorReason: reason,
			Payer:       x402.MixedAddress{Network: p.network, Address: result.Payer},
			Transaction: x402.TransactionHash{Network: p.network, Hash: txID},
			Network:     p.network,
		}, nil
	}

	// Step 13: record the group-id with TTL derived from the validity window.
	if p.nonces != nil {
		groupHex := fmt.Sprintf("%x", result.GroupID[:])
		key := noncestore.AlgorandKey(string(p.network), groupHex)
		ttl := noncestore.AlgorandTTL(int64(result.CurrentRound), int64(result.SignedPayment.Txn.LastValid))
		if _, err := p.nonces.CheckAndMarkUsed(ctx, string(p.network), key, ttl); err != nil {
			p.log.Warn().Err(err).Str("key", key).Msg("failed to record settled group in nonce store")
		}
	}

	_ = confirmedRound
	return &x402.SettleResponse{
		Success:     true,
		Payer:       x402.MixedAddress{Network: p.network, Address: result.Payer},
		Transaction: x402.TransactionHash{Network: p.network, Hash: txID},
		Network:     p.network,
	}, nil
}

func (p *Provider) awaitConfirmation(ctx context.Context, txID string) (uint64, error) {
	pollCtx := context.WithoutCancel(ctx)
	for attempt := 0; attempt < confirmationMaxAttempts; attempt++ {
		confirmedRound, poolError, err := p.algod.PendingTransactionInfo(pollCtx, txID)
		if err != nil {
			return 0, x402.NewFacilitatorError(x402.ErrRpcError, err)
		}
		if poolError != "" {
			// Partial confirmation with a rejection reason is fatal, not retryable.
			return 0, x402.NewFacilitatorError(x402.ErrTransactionNotConfirmed, fmt.Errorf("pool error: %s", poolError))
		}
		if confirmedRound > 0 {
			return confirmedRound, nil
		}

		// Once submission has returned a transaction id, settlement is
		// non-cancelable: it must observe confirmation or TransactionNotConfirmed,
		// never unwind on context cancellation.
		time.Sleep(confirmationPollInterval)
	}
	return 0, x402.NewFacilitatorError(x402.ErrTransactionNotConfirmed, fmt.Errorf("not confirmed after %d attempts", confirmationMaxAttempts))
}
