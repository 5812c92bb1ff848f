// Package evm implements the EIP-3009 gasless-transfer x402 scheme: the
// payer signs a transferWithAuthorization message, the facilitator submits
// it on their behalf and pays gas.
package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Signer is the facilitator-side EVM signer: it pays gas and submits
// transactions on behalf of payers who only ever sign off-chain messages.
type Signer interface {
	Address() common.Address
	ChainID() *big.Int
	ReadContract(ctx context.Context, contractAddr common.Address, abiJSON, method string, args ...interface{}) ([]interface{}, error)
	WriteContract(ctx context.Context, contractAddr common.Address, abiJSON, method string, args ...interface{}) (common.Hash, error)
	WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	GetBalance(ctx context.Context, account, token common.Address) (*big.Int, error)
}

// EthSigner implements Signer over an ECDSA private key and an ethclient connection.
type EthSigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	client     *ethclient.Client
	chainID    *big.Int
}

// NewEthSigner dials rpcURL and derives the signer address from privateKeyHex.
func NewEthSigner(ctx context.Context, rpcURL, privateKeyHex string) (*EthSigner, error) {
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}
	return &EthSigner{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		client:     client,
		chainID:    chainID,
	}, nil
}

func (s *EthSigner) Address() common.Address { return s.address }
func (s *EthSigner) ChainID() *big.Int       { return s.chainID }

func (s *EthSigner) ReadContract(ctx context.Context, contractAddr common.Address, abiJSON, method string, args ...interface{}) ([]interface{}, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, err
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	result, err := s.client.CallContract(ctx, callMsg(s.address, contractAddr, data), nil)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}
	return parsed.Unpack(method, result)
}

func (s *EthSigner) WriteContract(ctx context.Context, contractAddr common.Address, abiJSON, method string, args ...interface{}) (common.Hash, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return common.Hash{}, err
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack %s: %w", method, err)
	}

	nonce, err := s.client.PendingNonceAt(ctx, s.address)
	if err != nil {
		return common.Hash{}, err
	}
	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	gasLimit, err := s.client.EstimateGas(ctx, callMsg(s.address, contractAddr, data))
	if err != nil {
		gasLimit = 300000
	}

	tx := types.NewTransaction(nonce, contractAddr, big.NewInt(0), gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.privateKey)
	if err != nil {
		return common.Hash{}, err
	}
	if err := s.client.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, err
	}
	return signedTx.Hash(), nil
}

func (s *EthSigner) WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	for {
		receipt, err := s.client.TransactionReceipt(ctx, txHash)
		if !errors.Is(err, ethereum.NotFound) {
			return receipt, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

func (s *EthSigner) GetBalance(ctx context.Context, account, token common.Address) (*big.Int, error) {
	if token == (common.Address{}) {
		return s.client.BalanceAt(ctx, account, nil)
	}
	out, err := s.ReadContract(ctx, token, erc20BalanceOfABI, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return big.NewInt(0), nil
	}
	bal, _ := out[0].(*big.Int)
	if bal == nil {
		return big.NewInt(0), nil
	}
	return bal, nil
}

const erc20BalanceOfABI = `[{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"}]`

func callMsg(from, to common.Address, data []byte) ethereum.CallMsg {
	return ethereum.CallMsg{From: from, To: &to, Data: data}
}
