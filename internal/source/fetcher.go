// Package source is the input boundary: it retrieves the raw payloads
// (nested entity JSON, wiki HTML page) and lifts them into the ordered
// record sequences the core pipeline consumes. A totally malformed
// payload fails here, before the core is invoked.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/adurocher/mandat/internal/cache"
	"github.com/adurocher/mandat/internal/model"
	"github.com/adurocher/mandat/internal/util"
	"github.com/adurocher/mandat/internal/worker"
)

// Fetcher retrieves one raw HTML payload over HTTP, honoring
// robots.txt and the per-domain rate limit, and caching the payload
// between runs so a rerun reprocesses without re-fetching.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	store      cache.Cache
	ttl        time.Duration
}

// NewFetcher creates a fetcher from the HTTP configuration. store may
// be nil to disable payload caching.
func NewFetcher(cfg model.HTTPConfig, store cache.Cache, ttl time.Duration) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		limiter:   worker.NewLimiter(cfg.RatePerSec, cfg.RateBurst),
		store:     store,
		ttl:       ttl,
	}
	if cfg.CheckRobots {
		f.robots = util.NewRobotsChecker(cfg.UserAgent, cfg.Timeout)
	}
	return f
}

// Fetch retrieves the payload at rawURL. A disallowed or failing fetch
// is fatal to the run: the boundary fails before the core starts.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	key := cache.Key(rawURL)
	if f.store != nil {
		if body, found := f.store.Get(key); found {
			return body, nil
		}
	}

	var crawlDelay time.Duration
	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots check: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("robots.txt disallows fetching %s", rawURL)
		}
		crawlDelay = delay
	}

	if err := f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if f.store != nil {
		if err := f.store.Set(key, body, f.ttl); err != nil {
			return nil, fmt.Errorf("cache payload: %w", err)
		}
	}
	return body, nil
}
