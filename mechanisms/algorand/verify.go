package algorand

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	algotypes "github.com/algorand/go-algorand-sdk/v2/types"

	x402 "github.com/t402-io/x402-facilitator"
)

var zeroAddress algotypes.Address

// Verify runs the pure verification algorithm from §4.2 steps 1-8. It never
// signs or submits anything.
func (p *Provider) Verify(ctx context.Context, req x402.VerifyRequest) (*x402.VerifyResponse, error) {
	if x402.Network(req.PaymentPayload.Accepted.Network) != p.network {
		return nil, x402.NewFacilitatorError(x402.ErrNetworkMismatch, fmt.Errorf("payload network %q != provider network %q", req.PaymentPayload.Accepted.Network, p.network))
	}

	payload, err := payloadFromMap(req.PaymentPayload.Payload)
	if err != nil {
		return nil, x402.NewFacilitatorError(x402.ErrInvalidEncoding, err)
	}

	result, err := p.verifyAlgorithm(ctx, payload)
	if err != nil {
		var fe *x402.FacilitatorError
		if asFacilitatorError(err, &fe) {
			return &x402.VerifyResponse{Valid: false, InvalidReason: string(fe.Code)}, nil
		}
		return nil, err
	}

	return &x402.VerifyResponse{
		Valid: true,
		Payer: x402.MixedAddress{Network: p.network, Address: result.Payer},
	}, nil
}

// verifyAlgorithm implements §4.2 steps 1-8 against an already-parsed payload.
func (p *Provider) verifyAlgorithm(ctx context.Context, payload ExactPayload) (*verifyResult, error) {
	// Step 1: group length.
	if len(payload.PaymentGroup) < 2 {
		return nil, x402.NewFacilitatorError(x402.ErrInvalidAtomicGroup, fmt.Errorf("payment_group has %d entries, need >= 2", len(payload.PaymentGroup)))
	}

	// Step 2: payment index bounds.
	if payload.PaymentIndex <= 0 || payload.PaymentIndex >= len(payload.PaymentGroup) {
		return nil, x402.NewFacilitatorError(x402.ErrPaymentIndexOutOfBounds, fmt.Errorf("payment_index %d out of bounds for group of %d", payload.PaymentIndex, len(payload.PaymentGroup)))
	}

	// Step 3: decode group[0] as unsigned, group[payment_index] as signed.
	feeTxn, err := decodeUnsignedTxn(payload.PaymentGroup[0])
	if err != nil {
		return nil, x402.NewFacilitatorError(x402.ErrInvalidEncoding, fmt.Errorf("decode fee txn: %w", err))
	}
	signedPayment, err := decodeSignedTxn(payload.PaymentGroup[payload.PaymentIndex])
	if err != nil {
		return nil, x402.NewFacilitatorError(x402.ErrInvalidEncoding, fmt.Errorf("decode signed payment: %w", err))
	}

	// Step 4: fee-safety check. Terminal, no retries, before any signature is produced.
	if feeTxn.PaymentTxnFields.CloseRemainderTo != zeroAddress {
		return nil, x402.NewFacilitatorError(x402.ErrForbiddenFeeField, fmt.Errorf("fee txn sets close_remainder_to")).WithField("close_remainder_to")
	}
	if feeTxn.Header.RekeyTo != zeroAddress {
		return nil, x402.NewFacilitatorError(x402.ErrForbiddenFeeField, fmt.Errorf("fee txn sets rekey_to")).WithField("rekey_to")
	}
	if feeTxn.AssetTransferTxnFields.AssetCloseTo != zeroAddress {
		return nil, x402.NewFacilitatorError(x402.ErrForbiddenFeeField, fmt.Errorf("fee txn sets asset_close_to")).WithField("asset_close_to")
	}

	// Step 5: group-id equality, both non-empty.
	feeGroup := feeTxn.Header.Group
	paymentGroup := signedPayment.Txn.Header.Group
	var zeroDigest algotypes.Digest
	if feeGroup == zeroDigest || paymentGroup == zeroDigest {
		return nil, x402.NewFacilitatorError(x402.ErrInvalidAtomicGroup, fmt.Errorf("group id missing"))
	}
	if feeGroup != paymentGroup {
		return nil, x402.NewFacilitatorError(x402.ErrInvalidAtomicGroup, fmt.Errorf("Group IDs do not match"))
	}

	// Step 6: asset id match.
	if signedPayment.Txn.Type != algotypes.AssetTransferTx {
		return nil, x402.NewFacilitatorError(x402.ErrInvalidAtomicGroup, fmt.Errorf("payment_index transaction is not an asset transfer"))
	}
	actualAsset := uint64(signedPayment.Txn.AssetTransferTxnFields.XferAsset)
	if actualAsset != p.usdcAssetID {
		return nil, &x402.FacilitatorError{
			Code: x402.ErrAsaIdMismatch,
			Err:  fmt.Errorf("expected asset %d, got %d", p.usdcAssetID, actualAsset),
		}
	}

	// Step 7: expiration check against current round.
	currentRound, err := p.algod.CurrentRound(ctx)
	if err != nil {
		return nil, x402.NewFacilitatorError(x402.ErrRpcError, err)
	}
	if uint64(signedPayment.Txn.LastValid) < currentRound {
		return nil, x402.NewFacilitatorError(x402.ErrTransactionExpired, fmt.Errorf("last_valid %d < current_round %d", signedPayment.Txn.LastValid, currentRound))
	}

	// Step 8: derive payer/amount/recipient.
	return &verifyResult{
		Payer:         signedPayment.Txn.Sender.String(),
		FeeTxn:        feeTxn,
		SignedPayment: signedPayment,
		GroupID:       feeGroup,
		Amount:        signedPayment.Txn.AssetTransferTxnFields.AssetAmount,
		Recipient:     signedPayment.Txn.AssetTransferTxnFields.AssetReceiver.String(),
		CurrentRound:  currentRound,
	}, nil
}

func payloadFromMap(m map[string]interface{}) (ExactPayload, error) {
	var out ExactPayload
	raw, ok := m["paymentGroup"]
	if !ok {
		return out, fmt.Errorf("missing paymentGroup")
	}
	groupSlice, ok := raw.([]interface{})
	if !ok {
		return out, fmt.Errorf("paymentGroup must be an array")
	}
	for _, entry := range groupSlice {
		s, ok := entry.(string)
		if !ok {
			return out, fmt.Errorf("paymentGroup entries must be strings")
		}
		out.PaymentGroup = append(out.PaymentGroup, s)
	}

	idxRaw, ok := m["paymentIndex"]
	if !ok {
		return out, fmt.Errorf("missing paymentIndex")
	}
	switch v := idxRaw.(type) {
	case float64:
		out.PaymentIndex = int(v)
	case int:
		out.PaymentIndex = v
	default:
		return out, fmt.Errorf("paymentIndex must be a number")
	}
	return out, nil
}

func decodeUnsignedTxn(b64 string) (algotypes.Transaction, error) {
	var txn algotypes.Transaction
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return txn, err
	}
	if err := msgpack.Decode(raw, &txn); err != nil {
		return txn, err
	}
	return txn, nil
}

func decodeSignedTxn(b64 string) (algotypes.SignedTxn, error) {
	var stxn algotypes.SignedTxn
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return stxn, err
	}
	if err := msgpack.Decode(raw, &stxn); err != nil {
		return stxn, err
	}
	return stxn, nil
}

// asFacilitatorError avoids importing errors.As at every call site.
func asFacilitatorError(err error, target **x402.FacilitatorError) bool {
	if fe, ok := err.(*x402.FacilitatorError); ok {
		*target = fe
		return true
	}
	return false
}
