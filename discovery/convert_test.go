package discovery

import "testing"

func TestNormalizeNetwork_LegacyNames(t *testing.T) {
	cases := map[string]string{
		"base":           "eip155:8453",
		"polygon-amoy":   "eip155:80002",
		"eip155:8453":    "eip155:8453",
		"arbitrum-one":   "eip155:42161",
		"avalanche-fuji": "eip155:43113",
	}
	for in, want := range cases {
		got, ok := NormalizeNetwork(in)
		if !ok {
			t.Fatalf("NormalizeNetwork(%q): expected ok=true", in)
		}
		if got != want {
			t.Errorf("NormalizeNetwork(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeNetwork_Unrecognized(t *testing.T) {
	if _, ok := NormalizeNetwork("not-a-chain"); ok {
		t.Error("expected not-a-chain to be unrecognized")
	}
}

func TestNormalizeNetwork_BareChainID(t *testing.T) {
	got, ok := NormalizeNetwork("999999")
	if !ok || got != "eip155:999999" {
		t.Errorf("got %q, %v", got, ok)
	}
}

func TestConvertRequirement_DropsUnrecognizedNetwork(t *testing.T) {
	raw := map[string]interface{}{
		"network": "not-a-chain",
		"asset":   "0x1111111111111111111111111111111111111111",
		"payTo":   "0x2222222222222222222222222222222222222222",
		"amount":  "1000",
	}
	if _, ok := ConvertRequirement(raw); ok {
		t.Error("expected requirement with unrecognized network to be dropped")
	}
}

func TestConvertRequirement_DefaultsMaxTimeout(t *testing.T) {
	raw := map[string]interface{}{
		"network": "base",
		"asset":   "0x1111111111111111111111111111111111111111",
		"payTo":   "0x2222222222222222222222222222222222222222",
		"amount":  "1000",
	}
	got, ok := ConvertRequirement(raw)
	if !ok {
		t.Fatal("expected requirement to convert")
	}
	if got.MaxTimeoutSeconds != 300 {
		t.Errorf("MaxTimeoutSeconds = %d, want 300", got.MaxTimeoutSeconds)
	}
	if got.Network != "eip155:8453" {
		t.Errorf("Network = %q", got.Network)
	}
}

func TestConvertResource_TagsSourceAndKeepsConvertedAccepts(t *testing.T) {
	raw := map[string]interface{}{
		"url":         "https://example.com/api",
		"description": "an api",
		"accepts": []interface{}{
			map[string]interface{}{
				"network": "base-sepolia",
				"asset":   "0x1111111111111111111111111111111111111111",
				"payTo":   "0x2222222222222222222222222222222222222222",
				"amount":  "500",
			},
		},
		"last_updated": "2024-01-15T10:30:00Z",
	}
	resource, ok := ConvertResource(raw, "test-peer")
	if !ok {
		t.Fatal("expected resource to convert")
	}
	if resource.Source != "aggregation:test-peer" {
		t.Errorf("Source = %q", resource.Source)
	}
	if len(resource.Accepts) != 1 {
		t.Fatalf("expected 1 accepted requirement, got %d", len(resource.Accepts))
	}
}

func TestConvertResource_InvalidURLDropped(t *testing.T) {
	raw := map[string]interface{}{"url": "not a url at all"}
	if _, ok := ConvertResource(raw, "test-peer"); ok {
		t.Error("expected invalid URL resource to be dropped")
	}
}
