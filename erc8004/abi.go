// Package erc8004 adapts settled x402 payments into ERC-8004 "Trustless
// Agents" proof-of-payment records, readable by the Identity, Reputation,
// and Validation registries that ERC-8004 agents already trust.
package erc8004

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const identityRegistryABI = `[
	{"inputs":[{"name":"agentId","type":"uint256"}],"name":"resolveAgent","outputs":[{"name":"agentAddress","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"agentAddress","type":"address"}],"name":"agentIdOf","outputs":[{"name":"agentId","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

const reputationRegistryABI = `[
	{"inputs":[{"name":"agentId","type":"uint256"},{"name":"paymentHash","type":"bytes32"},{"name":"feedbackURI","type":"string"}],"name":"submitFeedback","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"paymentHash","type":"bytes32"}],"name":"feedbackForPayment","outputs":[{"name":"exists","type":"bool"}],"stateMutability":"view","type":"function"}
]`

const validationRegistryABI = `[
	{"inputs":[{"name":"paymentHash","type":"bytes32"},{"name":"validator","type":"address"}],"name":"requestValidation","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"paymentHash","type":"bytes32"}],"name":"validationStatus","outputs":[{"name":"validated","type":"bool"}],"stateMutability":"view","type":"function"}
]`

var (
	IdentityRegistryABI   abi.ABI
	ReputationRegistryABI abi.ABI
	ValidationRegistryABI abi.ABI
)

func init() {
	var err error
	IdentityRegistryABI, err = abi.JSON(strings.NewReader(identityRegistryABI))
	if err != nil {
		panic("erc8004: invalid identity registry ABI: " + err.Error())
	}
	ReputationRegistryABI, err = abi.JSON(strings.NewReader(reputationRegistryABI))
	if err != nil {
		panic("erc8004: invalid reputation registry ABI: " + err.Error())
	}
	ValidationRegistryABI, err = abi.JSON(strings.NewReader(validationRegistryABI))
	if err != nil {
		panic("erc8004: invalid validation registry ABI: " + err.Error())
	}
}
