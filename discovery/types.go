// Package discovery implements the federation pipeline that polls
// heterogeneous peer x402 facilitator catalogs, tolerates schema drift,
// normalizes into a canonical v2 resource schema, and merges into a
// registry the aggregator does not own.
package discovery

import "github.com/holiman/uint256"

// PeerConfig describes one peer catalog to poll.
type PeerConfig struct {
	ID            string
	Name          string
	DiscoveryURL  string
	Enabled       bool
	TimeoutSecs   int
}

// PaymentRequirementsV2 is the canonical payment-requirement shape every
// peer's divergent schema is normalized into.
type PaymentRequirementsV2 struct {
	Scheme            string
	Network            string // CAIP-2, e.g. "eip155:8453"
	Asset             string
	Amount            *uint256.Int
	PayTo             string
	MaxTimeoutSeconds int
}

// DiscoveryResource is the canonical v2 resource record produced by
// conversion and handed to the registry's bulk import.
type DiscoveryResource struct {
	URL         string
	Kind        string
	Description string
	Accepts     []PaymentRequirementsV2
	Category    string
	Provider    string
	Tags        []string
	LastUpdated int64 // Unix seconds
	Source      string // "aggregation:{peer_id}"
}

// Registry is the capability set the aggregator writes through. Its
// lifetime must strictly contain the aggregator task's lifetime; the
// aggregator holds a reference, never ownership.
type Registry interface {
	BulkImport(resources []DiscoveryResource, merge bool) error
}
