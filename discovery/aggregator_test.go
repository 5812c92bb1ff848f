package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func makeResourceJSON(n int) map[string]interface{} {
	return map[string]interface{}{
		"url":         fmt.Sprintf("https://example.com/resource/%d", n),
		"description": "test resource",
	}
}

// TestAggregator_PaginatesExactlyUntilShortPage exercises the two-page,
// 150-resource case: a full 100-item page followed by a 50-item page, after
// which the aggregator must not issue a third request.
func TestAggregator_PaginatesExactlyUntilShortPage(t *testing.T) {
	var requestCount int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		offset := r.URL.Query().Get("offset")
		var items []interface{}
		switch offset {
		case "0":
			for i := 0; i < 100; i++ {
				items = append(items, makeResourceJSON(i))
			}
		case "100":
			for i := 100; i < 150; i++ {
				items = append(items, makeResourceJSON(i))
			}
		default:
			t.Errorf("unexpected offset %q, aggregator issued a third page request", offset)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"items": items})
	}))
	defer server.Close()

	peer := PeerConfig{ID: "test", Name: "Test", DiscoveryURL: server.URL, Enabled: true, TimeoutSecs: 5}
	agg := NewAggregator([]PeerConfig{peer}, NewMemoryRegistry(), time.Hour, zerolog.Nop())

	resources, err := agg.fetchPeer(context.Background(), peer)
	if err != nil {
		t.Fatal(err)
	}
	if len(resources) != 150 {
		t.Errorf("got %d resources, want 150", len(resources))
	}
	if requestCount != 2 {
		t.Errorf("got %d requests, want exactly 2", requestCount)
	}
}

func TestExtractItems_FourShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"items+pagination", `{"items":[{"url":"https://a.com"}],"pagination":{"total":1}}`, 1},
		{"data.items", `{"data":{"items":[{"url":"https://a.com"},{"url":"https://b.com"}]}}`, 2},
		{"resources", `{"resources":[{"url":"https://a.com"}]}`, 1},
		{"bare array", `[{"url":"https://a.com"},{"url":"https://b.com"},{"url":"https://c.com"}]`, 3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			page, err := extractItems([]byte(c.body))
			if err != nil {
				t.Fatal(err)
			}
			if len(page.items) != c.want {
				t.Errorf("got %d items, want %d", len(page.items), c.want)
			}
		})
	}
}

// TestAggregator_StopsOnReportedTotalDespiteFullLastPage covers a catalog
// whose last page happens to be exactly pageLimit items long but reports a
// pagination.total equal to what's already been fetched: the aggregator
// must not issue a phantom second request chasing a short page that will
// never come.
func TestAggregator_StopsOnReportedTotalDespiteFullLastPage(t *testing.T) {
	var requestCount int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		offset := r.URL.Query().Get("offset")
		var items []interface{}
		switch offset {
		case "0":
			for i := 0; i < 100; i++ {
				items = append(items, makeResourceJSON(i))
			}
		default:
			t.Errorf("unexpected offset %q, aggregator issued a second page request despite total", offset)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items":      items,
			"pagination": map[string]interface{}{"total": 100},
		})
	}))
	defer server.Close()

	peer := PeerConfig{ID: "test", Name: "Test", DiscoveryURL: server.URL, Enabled: true, TimeoutSecs: 5}
	agg := NewAggregator([]PeerConfig{peer}, NewMemoryRegistry(), time.Hour, zerolog.Nop())

	resources, err := agg.fetchPeer(context.Background(), peer)
	if err != nil {
		t.Fatal(err)
	}
	if len(resources) != 100 {
		t.Errorf("got %d resources, want 100", len(resources))
	}
	if requestCount != 1 {
		t.Errorf("got %d requests, want exactly 1", requestCount)
	}
}

func TestAggregator_NonPeerFailureDoesNotBlockOthers(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"items": []interface{}{makeResourceJSON(1)}})
	}))
	defer healthy.Close()

	peers := []PeerConfig{
		{ID: "failing", DiscoveryURL: failing.URL, Enabled: true, TimeoutSecs: 5},
		{ID: "healthy", DiscoveryURL: healthy.URL, Enabled: true, TimeoutSecs: 5},
	}
	registry := NewMemoryRegistry()
	agg := NewAggregator(peers, registry, time.Hour, zerolog.Nop())
	agg.runCycle(context.Background())

	if registry.Len() != 1 {
		t.Errorf("expected 1 resource registered from the healthy peer, got %d", registry.Len())
	}
}
