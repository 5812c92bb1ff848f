package algorand

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	algotypes "github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	x402 "github.com/t402-io/x402-facilitator"
)

const testUsdcMainnet = 31566704
const testUsdcTestnet = 10458941

type fakeAlgod struct {
	currentRound uint64
}

func (f *fakeAlgod) CurrentRound(ctx context.Context) (uint64, error) { return f.currentRound, nil }
func (f *fakeAlgod) SendRawTransaction(ctx context.Context, group []byte) (string, error) {
	return "FAKETXID", nil
}
func (f *fakeAlgod) PendingTransactionInfo(ctx context.Context, txID string) (uint64, string, error) {
	return 1001, "", nil
}

func digest(b byte) algotypes.Digest {
	var d algotypes.Digest
	d[0] = b
	return d
}

func encodeTxnB64(t *testing.T, txn algotypes.Transaction) string {
	t.Helper()
	return encodeB64(msgpack.Encode(txn))
}

func encodeSignedB64(t *testing.T, stxn algotypes.SignedTxn) string {
	t.Helper()
	return encodeB64(msgpack.Encode(stxn))
}

func encodeB64(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

func newProviderForTest(network x402.Network, usdcAssetID uint64, round uint64) *Provider {
	return NewProvider(Config{
		Network:     network,
		USDCAssetID: usdcAssetID,
		Algod:       &fakeAlgod{currentRound: round},
	})
}

func TestVerifyAlgorithm_FeeFieldRejection(t *testing.T) {
	group := digest(0xAA)
	feeTxn := algotypes.Transaction{
		Type: algotypes.PaymentTx,
		Header: algotypes.Header{
			Group:      group,
			LastValid:  2000,
		},
		PaymentTxnFields: algotypes.PaymentTxnFields{
			CloseRemainderTo: algotypes.Address{0x01},
		},
	}
	signed := algotypes.SignedTxn{
		Txn: algotypes.Transaction{
			Type: algotypes.AssetTransferTx,
			Header: algotypes.Header{
				Group:     group,
				LastValid: 2000,
			},
			AssetTransferTxnFields: algotypes.AssetTransferTxnFields{
				XferAsset: testUsdcTestnet,
			},
		},
	}

	p := newProviderForTest(x402.NetworkAlgorandTestnet, testUsdcTestnet, 1000)
	payload := ExactPayload{
		PaymentGroup: []string{encodeTxnB64(t, feeTxn), encodeSignedB64(t, signed)},
		PaymentIndex: 1,
	}

	_, err := p.verifyAlgorithm(context.Background(), payload)
	require.Error(t, err)
	var fe *x402.FacilitatorError
	require.True(t, asFacilitatorError(err, &fe))
	assert.Equal(t, x402.ErrForbiddenFeeField, fe.Code)
	assert.Equal(t, "close_remainder_to", fe.Field)
}

func TestVerifyAlgorithm_GroupIDMismatch(t *testing.T) {
	feeTxn := algotypes.Transaction{
		Type:   algotypes.PaymentTx,
		Header: algotypes.Header{Group: digest(0x01), LastValid: 2000},
	}
	signed := algotypes.SignedTxn{
		Txn: algotypes.Transaction{
			Type:                    algotypes.AssetTransferTx,
			Header:                  algotypes.Header{Group: digest(0x02), LastValid: 2000},
			AssetTransferTxnFields:  algotypes.AssetTransferTxnFields{XferAsset: testUsdcTestnet},
		},
	}

	p := newProviderForTest(x402.NetworkAlgorandTestnet, testUsdcTestnet, 1000)
	payload := ExactPayload{
		PaymentGroup: []string{encodeTxnB64(t, feeTxn), encodeSignedB64(t, signed)},
		PaymentIndex: 1,
	}

	_, err := p.verifyAlgorithm(context.Background(), payload)
	require.Error(t, err)
	var fe *x402.FacilitatorError
	require.True(t, asFacilitatorError(err, &fe))
	assert.Equal(t, x402.ErrInvalidAtomicGroup, fe.Code)
}

func TestVerifyAlgorithm_AsaIdMismatch(t *testing.T) {
	group := digest(0xBB)
	feeTxn := algotypes.Transaction{
		Type:   algotypes.PaymentTx,
		Header: algotypes.Header{Group: group, LastValid: 2000},
	}
	signed := algotypes.SignedTxn{
		Txn: algotypes.Transaction{
			Type:                   algotypes.AssetTransferTx,
			Header:                 algotypes.Header{Group: group, LastValid: 2000},
			AssetTransferTxnFields: algotypes.AssetTransferTxnFields{XferAsset: testUsdcTestnet},
		},
	}

	p := newProviderForTest(x402.NetworkAlgorandMainnet, testUsdcMainnet, 1000)
	payload := ExactPayload{
		PaymentGroup: []string{encodeTxnB64(t, feeTxn), encodeSignedB64(t, signed)},
		PaymentIndex: 1,
	}

	_, err := p.verifyAlgorithm(context.Background(), payload)
	require.Error(t, err)
	var fe *x402.FacilitatorError
	require.True(t, asFacilitatorError(err, &fe))
	assert.Equal(t, x402.ErrAsaIdMismatch, fe.Code)
}

func TestVerifyAlgorithm_ShortGroupRejected(t *testing.T) {
	p := newProviderForTest(x402.NetworkAlgorandTestnet, testUsdcTestnet, 1000)
	_, err := p.verifyAlgorithm(context.Background(), ExactPayload{PaymentGroup: []string{"onlyone"}, PaymentIndex: 0})
	require.Error(t, err)
	var fe *x402.FacilitatorError
	require.True(t, asFacilitatorError(err, &fe))
	assert.Equal(t, x402.ErrInvalidAtomicGroup, fe.Code)
}

func TestVerifyAlgorithm_PaymentIndexOutOfBounds(t *testing.T) {
	p := newProviderForTest(x402.NetworkAlgorandTestnet, testUsdcTestnet, 1000)
	_, err := p.verifyAlgorithm(context.Background(), ExactPayload{PaymentGroup: []string{"a", "b"}, PaymentIndex: 0})
	require.Error(t, err)
	var fe *x402.FacilitatorError
	require.True(t, asFacilitatorError(err, &fe))
	assert.Equal(t, x402.ErrPaymentIndexOutOfBounds, fe.Code)
}
