package source

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/adurocher/mandat/internal/cache"
	"github.com/adurocher/mandat/internal/model"
)

// EntityClient retrieves the nested person/role dataset from a JSON
// endpoint.
type EntityClient struct {
	http  *resty.Client
	store cache.Cache
	ttl   time.Duration
}

// NewEntityClient creates a client from the HTTP configuration. store
// may be nil to disable payload caching.
func NewEntityClient(cfg model.HTTPConfig, store cache.Cache, ttl time.Duration) *EntityClient {
	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetHeader("Accept", "application/json")
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(3))
	return &EntityClient{http: client, store: store, ttl: ttl}
}

// Entities fetches and decodes the entity list, preserving source
// order. A malformed payload is fatal here, at the boundary.
func (c *EntityClient) Entities(ctx context.Context, rawURL string) ([]model.Entity, error) {
	key := cache.Key(rawURL)
	if c.store != nil {
		if body, found := c.store.Get(key); found {
			return ParseEntities(body)
		}
	}

	resp, err := c.http.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch entities: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch entities: unexpected status %s", resp.Status())
	}

	entities, err := ParseEntities(resp.Body())
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		if err := c.store.Set(key, resp.Body(), c.ttl); err != nil {
			return nil, fmt.Errorf("cache payload: %w", err)
		}
	}
	return entities, nil
}

// ParseEntities decodes the raw JSON payload: an ordered list of
// entities, each with scalar attributes and an ordered list of role
// records.
func ParseEntities(data []byte) ([]model.Entity, error) {
	var entities []model.Entity
	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, fmt.Errorf("decode entity payload: %w", err)
	}
	return entities, nil
}
