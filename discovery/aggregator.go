package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const pageLimit = 100

// Aggregator periodically polls every configured peer's discovery endpoint,
// normalizes whatever shape comes back, and bulk-imports into the registry.
// A failing or malformed peer never blocks the others.
type Aggregator struct {
	peers      []PeerConfig
	registry   Registry
	httpClient *http.Client
	interval   time.Duration
	log        zerolog.Logger
}

func NewAggregator(peers []PeerConfig, registry Registry, interval time.Duration, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		peers:      peers,
		registry:   registry,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		interval:   interval,
		log:        log,
	}
}

// Run blocks, polling immediately and then on every interval tick, until ctx
// is cancelled.
func (a *Aggregator) Run(ctx context.Context) {
	a.runCycle(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.runCycle(ctx)
		}
	}
}

func (a *Aggregator) runCycle(ctx context.Context) {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(8)

	results := make([][]DiscoveryResource, len(a.peers))
	for i, peer := range a.peers {
		if !peer.Enabled {
			continue
		}
		i, peer := i, peer
		group.Go(func() error {
			resources, err := a.fetchPeer(groupCtx, peer)
			if err != nil {
				a.log.Error().Str("peer", peer.ID).Err(err).Msg("discovery peer fetch failed")
				return nil
			}
			results[i] = resources
			return nil
		})
	}
	_ = group.Wait()

	var all []DiscoveryResource
	for _, resources := range results {
		all = append(all, resources...)
	}
	if len(all) == 0 {
		return
	}
	if err := a.registry.BulkImport(all, true); err != nil {
		a.log.Warn().Err(err).Msg("discovery bulk import failed")
	}
}

// fetchPeer pages through one peer's discovery endpoint, converting every
// resource it recognizes and skipping (with a debug log) anything it can't.
// It stops as soon as either signal says the catalog is exhausted: a page
// shorter than pageLimit, or a cumulative count that has reached a reported
// pagination.total. Shapes without pagination metadata (the bare-array
// form) only ever produce the first signal.
func (a *Aggregator) fetchPeer(ctx context.Context, peer PeerConfig) ([]DiscoveryResource, error) {
	var out []DiscoveryResource
	offset := 0
	fetched := 0
	for {
		page, err := a.fetchPage(ctx, peer, offset)
		if err != nil {
			return out, err
		}
		for _, itemRaw := range page.items {
			item, ok := itemRaw.(map[string]interface{})
			if !ok {
				continue
			}
			resource, ok := ConvertResource(item, peer.ID)
			if !ok {
				a.log.Debug().Str("peer", peer.ID).Msg("skipping unparseable discovery resource")
				continue
			}
			out = append(out, resource)
		}
		fetched += len(page.items)
		if len(page.items) < pageLimit {
			return out, nil
		}
		if page.hasTotal && fetched >= page.total {
			return out, nil
		}
		offset += pageLimit
	}
}

// discoveryPage is one page of a peer's catalog, with total set only when
// the peer reported a pagination.total alongside this page's items.
type discoveryPage struct {
	items    []interface{}
	total    int
	hasTotal bool
}

func (a *Aggregator) fetchPage(ctx context.Context, peer PeerConfig, offset int) (discoveryPage, error) {
	timeout := time.Duration(peer.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("%s?limit=%d&offset=%d", peer.DiscoveryURL, pageLimit, offset)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return discoveryPage{}, err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return discoveryPage{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return discoveryPage{}, fmt.Errorf("peer %s returned status %d", peer.ID, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return discoveryPage{}, err
	}
	return extractItems(body)
}

// extractItems tolerates four response shapes:
//
//	{"items": [...], "pagination": {"total": N}}
//	{"data": {"items": [...], "pagination": {"total": N}}}
//	{"resources": [...], "pagination": {"total": N}}
//	[...]
func extractItems(body []byte) (discoveryPage, error) {
	var asArray []interface{}
	if err := json.Unmarshal(body, &asArray); err == nil {
		return discoveryPage{items: asArray}, nil
	}

	var asObject map[string]interface{}
	if err := json.Unmarshal(body, &asObject); err != nil {
		return discoveryPage{}, fmt.Errorf("response is neither a JSON array nor object: %w", err)
	}

	if items, ok := asObject["items"].([]interface{}); ok {
		return withPaginationTotal(items, asObject["pagination"]), nil
	}
	if items, ok := asObject["resources"].([]interface{}); ok {
		return withPaginationTotal(items, asObject["pagination"]), nil
	}
	if data, ok := asObject["data"].(map[string]interface{}); ok {
		if items, ok := data["items"].([]interface{}); ok {
			return withPaginationTotal(items, data["pagination"]), nil
		}
	}
	return discoveryPage{}, fmt.Errorf("unrecognized discovery response shape")
}

func withPaginationTotal(items []interface{}, paginationRaw interface{}) discoveryPage {
	pagination, ok := paginationRaw.(map[string]interface{})
	if !ok {
		return discoveryPage{items: items}
	}
	total, ok := pagination["total"].(float64)
	if !ok {
		return discoveryPage{items: items}
	}
	return discoveryPage{items: items, total: int(total), hasTotal: true}
}
