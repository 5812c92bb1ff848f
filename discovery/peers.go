package discovery

// DefaultPeers returns the compiled-in list of known x402 facilitator
// catalogs the aggregator polls out of the box. Further peers can be added to
// the slice passed to NewAggregator; cmd/facilitator passes this list as is.
func DefaultPeers() []PeerConfig {
	return []PeerConfig{
		{ID: "coinbase-cdp", Name: "Coinbase CDP", DiscoveryURL: "https://api.cdp.coinbase.com/platform/v2/x402/discovery/resources", Enabled: true, TimeoutSecs: 10},
		{ID: "payai", Name: "PayAI", DiscoveryURL: "https://facilitator.payai.network/discovery/resources", Enabled: true, TimeoutSecs: 10},
		{ID: "thirdweb", Name: "Thirdweb", DiscoveryURL: "https://api.thirdweb.com/v1/payments/x402/discovery/resources", Enabled: true, TimeoutSecs: 10},
		{ID: "questflow", Name: "QuestFlow", DiscoveryURL: "https://facilitator.questflow.ai/discovery/resources", Enabled: true, TimeoutSecs: 10},
		{ID: "aurracloud", Name: "AurraCloud", DiscoveryURL: "https://x402-facilitator.aurracloud.com/discovery/resources", Enabled: true, TimeoutSecs: 10},
		{ID: "anyspend", Name: "AnySpend", DiscoveryURL: "https://mainnet.anyspend.com/x402/discovery/resources", Enabled: true, TimeoutSecs: 10},
		{ID: "openx402", Name: "OpenX402", DiscoveryURL: "https://open.x402.host/discovery/resources", Enabled: true, TimeoutSecs: 10},
		{ID: "x402-rs", Name: "x402.rs", DiscoveryURL: "https://facilitator.x402.rs/discovery/resources", Enabled: true, TimeoutSecs: 10},
		{ID: "heurist", Name: "Heurist", DiscoveryURL: "https://facilitator.heurist.xyz/discovery/resources", Enabled: true, TimeoutSecs: 10},
		{ID: "polymer", Name: "Polymer", DiscoveryURL: "https://api.polymer.zone/x402/v1/discovery/resources", Enabled: true, TimeoutSecs: 10},
		{ID: "meridian", Name: "Meridian", DiscoveryURL: "https://api.mrdn.finance/discovery/resources", Enabled: true, TimeoutSecs: 10},
		{ID: "virtuals", Name: "Virtuals", DiscoveryURL: "https://acpx.virtuals.io/discovery/resources", Enabled: true, TimeoutSecs: 10},
	}
}
