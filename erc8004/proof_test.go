package erc8004

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestHashPayment_Deterministic(t *testing.T) {
	txHash := common.HexToHash("0xabc123")
	h1 := HashPayment(txHash, 1000, "0x1111111111111111111111111111111111111111", "0x2222222222222222222222222222222222222222", "500000")
	h2 := HashPayment(txHash, 1000, "0x1111111111111111111111111111111111111111", "0x2222222222222222222222222222222222222222", "500000")
	if h1 != h2 {
		t.Fatal("HashPayment must be deterministic")
	}

	h3 := HashPayment(txHash, 1001, "0x1111111111111111111111111111111111111111", "0x2222222222222222222222222222222222222222", "500000")
	if h1 == h3 {
		t.Fatal("changing block number must change the hash")
	}
}

func TestHashPayment_ZeroTxHash(t *testing.T) {
	h := HashPayment(common.Hash{}, 0, "payer", "payee", "0")
	if h == ([32]byte{}) {
		t.Fatal("hash of zero inputs should not itself be the zero hash")
	}
}

func TestAmountBE32_ZeroPadding(t *testing.T) {
	got := amountBE32("256")
	want := [32]byte{}
	want[30] = 1
	if got != want {
		t.Errorf("amountBE32(256) = %x, want %x", got, want)
	}
}

func TestParseReputationExtension(t *testing.T) {
	extra := map[string]any{
		"8004-reputation": map[string]interface{}{"includeProof": true},
	}
	ext, ok := ParseReputationExtension(extra)
	if !ok || !ext.IncludeProof {
		t.Fatalf("got %+v, %v", ext, ok)
	}

	_, ok = ParseReputationExtension(map[string]any{})
	if ok {
		t.Fatal("expected ok=false when key absent")
	}
}
