// Package algorand implements gasless USDC (ASA) payments via Algorand
// atomic transaction groups: transaction 0, unsigned and client-constructed,
// pays fees on behalf of transaction N, signed and client-authorized as an
// asset transfer. The facilitator co-signs transaction 0 and submits the
// group, so the payer never needs ALGO of their own to move USDC.
//
// Verification is pure with respect to chain state: it decodes and checks
// the group without signing or submitting anything. Settlement repeats
// verification, signs the fee transaction, reassembles the group in index
// order, submits it, and polls for confirmation before recording the
// group-id in the nonce store.
package algorand
