package evm

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var errInvalidSignatureLength = errors.New("evm: signature must be 65 bytes")

// transferWithAuthorizationTypeHash is keccak256 of the EIP-3009 struct signature.
var transferWithAuthorizationTypeHash = crypto.Keccak256Hash(
	[]byte("TransferWithAuthorization(address from,address to,uint256 value,uint256 validAfter,uint256 validBefore,bytes32 nonce)"),
)

// Authorization is a parsed EIP-3009 transferWithAuthorization message.
type Authorization struct {
	From        common.Address
	To          common.Address
	Value       *big.Int
	ValidAfter  *big.Int
	ValidBefore *big.Int
	Nonce       [32]byte
}

// domainSeparator builds the EIP-712 domain separator for a token contract.
func domainSeparator(name, version string, chainID *big.Int, verifyingContract common.Address) common.Hash {
	domainTypeHash := crypto.Keccak256Hash(
		[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"),
	)
	nameHash := crypto.Keccak256Hash([]byte(name))
	versionHash := crypto.Keccak256Hash([]byte(version))

	buf := make([]byte, 0, 32*5)
	buf = append(buf, domainTypeHash.Bytes()...)
	buf = append(buf, nameHash.Bytes()...)
	buf = append(buf, versionHash.Bytes()...)
	buf = append(buf, common.LeftPadBytes(chainID.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(verifyingContract.Bytes(), 32)...)
	return crypto.Keccak256Hash(buf)
}

// HashAuthorization computes the EIP-712 digest a payer signs to authorize
// a transferWithAuthorization call.
func HashAuthorization(auth Authorization, tokenName, tokenVersion string, chainID *big.Int, token common.Address) common.Hash {
	structBuf := make([]byte, 0, 32*7)
	structBuf = append(structBuf, transferWithAuthorizationTypeHash.Bytes()...)
	structBuf = append(structBuf, common.LeftPadBytes(auth.From.Bytes(), 32)...)
	structBuf = append(structBuf, common.LeftPadBytes(auth.To.Bytes(), 32)...)
	structBuf = append(structBuf, common.LeftPadBytes(auth.Value.Bytes(), 32)...)
	structBuf = append(structBuf, common.LeftPadBytes(auth.ValidAfter.Bytes(), 32)...)
	structBuf = append(structBuf, common.LeftPadBytes(auth.ValidBefore.Bytes(), 32)...)
	structBuf = append(structBuf, auth.Nonce[:]...)
	structHash := crypto.Keccak256Hash(structBuf)

	domain := domainSeparator(tokenName, tokenVersion, chainID, token)

	digestBuf := make([]byte, 0, 2+32+32)
	digestBuf = append(digestBuf, 0x19, 0x01)
	digestBuf = append(digestBuf, domain.Bytes()...)
	digestBuf = append(digestBuf, structHash.Bytes()...)
	return crypto.Keccak256Hash(digestBuf)
}

// RecoverSigner recovers the EOA address that produced a 65-byte (r,s,v)
// signature over digest. It normalizes the recovery id from Ethereum's
// 27/28 convention to the 0/1 convention crypto.Ecrecover expects.
func RecoverSigner(digest common.Hash, signature []byte) (common.Address, error) {
	if len(signature) != 65 {
		return common.Address{}, errInvalidSignatureLength
	}
	sig := make([]byte, 65)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	pubKey, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}
