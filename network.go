package x402

import "strings"

// Network identifies a chain plus environment, e.g. "algorand-mainnet" or
// "eip155:8453". Every provider declares exactly one Network; the façade
// dispatches by exact match, never by pattern.
type Network string

// Family returns the CAIP-2 namespace portion of an eip155-style network,
// or the whole string for non-CAIP networks (e.g. "algorand-mainnet").
func (n Network) Family() string {
	if idx := strings.IndexByte(string(n), ':'); idx >= 0 {
		return string(n)[:idx]
	}
	return string(n)
}

// IsEVM reports whether this network uses the eip155 CAIP-2 namespace.
func (n Network) IsEVM() bool {
	return strings.HasPrefix(string(n), "eip155:")
}

// IsAlgorand reports whether this network is one of the Algorand environments.
func (n Network) IsAlgorand() bool {
	return strings.HasPrefix(string(n), "algorand-")
}

const (
	NetworkAlgorandMainnet Network = "algorand-mainnet"
	NetworkAlgorandTestnet Network = "algorand-testnet"
)
