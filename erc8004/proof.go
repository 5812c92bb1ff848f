package erc8004

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ProofOfPayment binds a confirmed settlement to a reputation-submission
// record. PaymentHash is deterministic and bit-exact across reimplementations;
// see HashPayment.
type ProofOfPayment struct {
	TransactionHash common.Hash
	BlockNumber     uint64
	Network         string
	Payer           string
	Payee           string
	Amount          string
	Token           string
	BlockTimestamp  int64
	PaymentHash     [32]byte
}

// NewProofOfPayment builds a ProofOfPayment from settlement data, deriving
// PaymentHash via HashPayment. txHash may be the zero hash when a provider
// settles without an on-chain transaction id.
func NewProofOfPayment(txHash common.Hash, blockNumber uint64, network, payer, payee, amount, token string, blockTimestamp int64) ProofOfPayment {
	return ProofOfPayment{
		TransactionHash: txHash,
		BlockNumber:     blockNumber,
		Network:         network,
		Payer:           payer,
		Payee:           payee,
		Amount:          amount,
		Token:           token,
		BlockTimestamp:  blockTimestamp,
		PaymentHash:     HashPayment(txHash, blockNumber, payer, payee, amount),
	}
}

// HashPayment reproduces the proof-of-payment hash exactly:
//
//	keccak256(tx_hash ∥ block_number_be8 ∥ utf8(payer) ∥ utf8(payee) ∥ amount_be32)
//
// tx_hash contributes its raw 32 bytes (the zero hash if unavailable).
// block_number is 8 bytes big-endian. amount is parsed as a base-10 256-bit
// unsigned integer and contributes 32 bytes big-endian, zero-padded; a
// value that does not fit in 256 bits is truncated to its low 32 bytes.
func HashPayment(txHash common.Hash, blockNumber uint64, payer, payee, amount string) [32]byte {
	var blockNumberBytes [8]byte
	binary.BigEndian.PutUint64(blockNumberBytes[:], blockNumber)

	amountBytes := amountBE32(amount)

	var buf []byte
	buf = append(buf, txHash.Bytes()...)
	buf = append(buf, blockNumberBytes[:]...)
	buf = append(buf, []byte(payer)...)
	buf = append(buf, []byte(payee)...)
	buf = append(buf, amountBytes[:]...)

	return crypto.Keccak256Hash(buf)
}

func amountBE32(amount string) [32]byte {
	var out [32]byte
	n, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return out
	}
	b := n.Bytes()
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(out[32-len(b):], b)
	return out
}
