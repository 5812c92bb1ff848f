package erc8004

import (
	"os"

	"github.com/ethereum/go-ethereum/common"
)

// Contracts resolves the three ERC-8004 registry addresses for one network.
// Environment overrides always win; compiled-in defaults cover networks with
// an official deployment.
type Contracts struct {
	Identity   common.Address
	Reputation common.Address
	Validation common.Address
}

// knownDeployments covers mainnets with a published ERC-8004 deployment.
// Addresses are placeholders until upstream publishes final deployments;
// operators should set the environment overrides in production.
var knownDeployments = map[string]Contracts{
	"eip155:8453": {
		Identity:   common.HexToAddress("0x8004000000000000000000000000000000008A"),
		Reputation: common.HexToAddress("0x8004000000000000000000000000000000008B"),
		Validation: common.HexToAddress("0x8004000000000000000000000000000000008C"),
	},
}

// Resolve returns the registry addresses for network, applying the
// ERC8004_IDENTITY_REGISTRY / ERC8004_REPUTATION_REGISTRY /
// ERC8004_VALIDATION_REGISTRY environment overrides on top of any known
// deployment for that network.
func Resolve(network string) Contracts {
	contracts := knownDeployments[network]

	if v := os.Getenv("ERC8004_IDENTITY_REGISTRY"); v != "" {
		contracts.Identity = common.HexToAddress(v)
	}
	if v := os.Getenv("ERC8004_REPUTATION_REGISTRY"); v != "" {
		contracts.Reputation = common.HexToAddress(v)
	}
	if v := os.Getenv("ERC8004_VALIDATION_REGISTRY"); v != "" {
		contracts.Validation = common.HexToAddress(v)
	}
	return contracts
}

// Configured reports whether any registry address is non-zero.
func (c Contracts) Configured() bool {
	zero := common.Address{}
	return c.Identity != zero || c.Reputation != zero || c.Validation != zero
}
