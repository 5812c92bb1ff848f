package noncestore

import "fmt"

// StellarKey builds the chain-scoped nonce key for a Stellar authorization:
// "{network}#{address}#{nonce}".
func StellarKey(network, address string, nonce uint64) string {
	return fmt.Sprintf("%s#%s#%d", network, address, nonce)
}

// AlgorandKey builds the chain-scoped nonce key for an Algorand atomic
// group: "{network}#group#{group_id_hex32}". groupIDHex must already be the
// 32-byte group id hex-encoded (64 hex characters).
func AlgorandKey(network, groupIDHex string) string {
	return fmt.Sprintf("%s#group#%s", network, groupIDHex)
}

// EVMKey builds the chain-scoped nonce key for an EIP-3009
// transferWithAuthorization: "{network}#{authorizer}#{nonce_hex32}". Not
// named in §4.3's two worked examples, but follows the same
// "{network}#{scoping}#{identifier}" shape.
func EVMKey(network, authorizer, nonceHex string) string {
	return fmt.Sprintf("%s#%s#%s", network, authorizer, nonceHex)
}
