package discovery

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/holiman/uint256"
)

var legacyNetworkNames = map[string]int64{
	"base":                  8453,
	"base-mainnet":          8453,
	"base-sepolia":          84532,
	"ethereum":              1,
	"mainnet":               1,
	"sepolia":               11155111,
	"polygon":               137,
	"matic":                 137,
	"polygon-amoy":          80002,
	"optimism":              10,
	"optimism-sepolia":      11155420,
	"arbitrum":              42161,
	"arbitrum-one":          42161,
	"arbitrum-sepolia":      421614,
	"avalanche":             43114,
	"avalanche-c-chain":     43114,
	"avalanche-fuji":        43113,
	"fuji":                  43113,
	"celo":                  42220,
	"celo-alfajores":        44787,
}

// NormalizeNetwork maps a peer's free-form network string onto the CAIP-2
// "eip155:<chainId>" form. Already-CAIP-2 strings pass through. Unrecognized
// strings that parse as a bare integer are treated as an EVM chain id.
// Anything else returns ok=false, meaning the requirement should be dropped.
func NormalizeNetwork(raw string) (network string, ok bool) {
	if strings.HasPrefix(raw, "eip155:") {
		return raw, true
	}
	if chainID, known := legacyNetworkNames[raw]; known {
		return fmt.Sprintf("eip155:%d", chainID), true
	}
	if chainID, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return fmt.Sprintf("eip155:%d", chainID), true
	}
	return "", false
}

// ConvertRequirement normalizes a peer's raw payment-requirement map into a
// PaymentRequirementsV2, or ok=false when the requirement should be dropped
// (unparseable network or non-EVM addresses) rather than failing the whole resource.
func ConvertRequirement(raw map[string]interface{}) (PaymentRequirementsV2, bool) {
	var out PaymentRequirementsV2

	networkRaw, _ := raw["network"].(string)
	network, ok := NormalizeNetwork(networkRaw)
	if !ok {
		return out, false
	}

	asset, _ := raw["asset"].(string)
	if !isEVMAddress(asset) {
		return out, false
	}
	payTo, _ := raw["payTo"].(string)
	if !isEVMAddress(payTo) {
		return out, false
	}

	amount := new(uint256.Int)
	if amountStr, ok := raw["amount"].(string); ok {
		if err := amount.SetFromDecimal(amountStr); err != nil {
			amount = new(uint256.Int)
		}
	}

	maxTimeout := 300
	if mt, ok := raw["maxTimeoutSeconds"].(float64); ok {
		maxTimeout = int(mt)
	}

	scheme, _ := raw["scheme"].(string)
	if scheme == "" {
		scheme = "exact"
	}

	out = PaymentRequirementsV2{
		Scheme:            scheme,
		Network:           network,
		Asset:             asset,
		Amount:            amount,
		PayTo:             payTo,
		MaxTimeoutSeconds: maxTimeout,
	}
	return out, true
}

func isEVMAddress(s string) bool {
	if !strings.HasPrefix(s, "0x") || len(s) != 42 {
		return false
	}
	for _, c := range s[2:] {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// ConvertResource normalizes one raw peer resource record into a
// DiscoveryResource tagged with the peer's provenance. ok=false means the
// resource should be skipped entirely (unparseable URL).
func ConvertResource(raw map[string]interface{}, peerID string) (DiscoveryResource, bool) {
	rawURL, _ := raw["url"].(string)
	if rawURL == "" {
		rawURL, _ = raw["resource"].(string)
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" {
		return DiscoveryResource{}, false
	}

	kind, _ := raw["type"].(string)
	if kind == "" {
		kind = "http"
	}
	description, _ := raw["description"].(string)

	var accepts []PaymentRequirementsV2
	if acceptsRaw, ok := raw["accepts"].([]interface{}); ok {
		for _, entryRaw := range acceptsRaw {
			entry, ok := entryRaw.(map[string]interface{})
			if !ok {
				continue
			}
			if converted, ok := ConvertRequirement(entry); ok {
				accepts = append(accepts, converted)
			}
		}
	}

	lastUpdated := time.Now().Unix()
	if tsRaw, ok := raw["last_updated"]; ok {
		if parsedTS, err := ParseFlexibleTimestamp(tsRaw); err == nil {
			lastUpdated = parsedTS
		}
	}

	var category, provider string
	var tags []string
	if metadata, ok := raw["metadata"].(map[string]interface{}); ok {
		category, _ = metadata["category"].(string)
		provider, _ = metadata["provider"].(string)
		if tagsRaw, ok := metadata["tags"].([]interface{}); ok {
			for _, tagRaw := range tagsRaw {
				if tag, ok := tagRaw.(string); ok {
					tags = append(tags, tag)
				}
			}
		}
	}

	return DiscoveryResource{
		URL:         rawURL,
		Kind:        kind,
		Description: description,
		Accepts:     accepts,
		Category:    category,
		Provider:    provider,
		Tags:        tags,
		LastUpdated: lastUpdated,
		Source:      fmt.Sprintf("aggregation:%s", peerID),
	}, true
}
