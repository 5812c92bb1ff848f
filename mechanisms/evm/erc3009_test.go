package evm

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAuthorization_Deterministic(t *testing.T) {
	auth := Authorization{
		From:        common.HexToAddress("0x1111111111111111111111111111111111111111"),
		To:          common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Value:       big.NewInt(1000000),
		ValidAfter:  big.NewInt(0),
		ValidBefore: big.NewInt(2000000000),
		Nonce:       [32]byte{1, 2, 3},
	}
	token := common.HexToAddress("0x3333333333333333333333333333333333333333")
	chainID := big.NewInt(8453)

	h1 := HashAuthorization(auth, "USD Coin", "2", chainID, token)
	h2 := HashAuthorization(auth, "USD Coin", "2", chainID, token)
	assert.Equal(t, h1, h2)

	// Changing any field changes the digest.
	auth.Value = big.NewInt(999)
	h3 := HashAuthorization(auth, "USD Coin", "2", chainID, token)
	assert.NotEqual(t, h1, h3)
}

func TestRecoverSigner_RoundTrip(t *testing.T) {
	privateKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	expected := crypto.PubkeyToAddress(privateKey.PublicKey)

	auth := Authorization{
		From:        expected,
		To:          common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Value:       big.NewInt(42),
		ValidAfter:  big.NewInt(0),
		ValidBefore: big.NewInt(2000000000),
		Nonce:       [32]byte{9},
	}
	token := common.HexToAddress("0x3333333333333333333333333333333333333333")
	digest := HashAuthorization(auth, "USD Coin", "2", big.NewInt(8453), token)

	sig, err := crypto.Sign(digest.Bytes(), privateKey)
	require.NoError(t, err)
	sig[64] += 27

	recovered, err := RecoverSigner(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, expected, recovered)
}
