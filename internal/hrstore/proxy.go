package hrstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Proxy is the cached view of the HR store that the rest of the service
// reads through. Reads go through the TTL cache; mutations invalidate it
// wholesale.
type Proxy struct {
	client *Client
	cache  *Cache
}

func NewProxy(client *Client, ttl time.Duration) *Proxy {
	return &Proxy{
		client: client,
		cache:  NewCache(ttl, nil),
	}
}

// NewProxyWithClock exists for tests that need to control TTL expiry.
func NewProxyWithClock(client *Client, ttl time.Duration, now func() time.Time) *Proxy {
	return &Proxy{
		client: client,
		cache:  NewCache(ttl, now),
	}
}

func cached[T any](c *Cache, key string, fetch func() (T, error)) (T, error) {
	v, err := c.Get(key, func() (any, error) { return fetch() })
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (p *Proxy) Persons(ctx context.Context) ([]Person, error) {
	return cached(p.cache, "persons", func() ([]Person, error) { return p.client.Persons(ctx) })
}

func (p *Proxy) Entities(ctx context.Context) ([]Entity, error) {
	return cached(p.cache, "entities", func() ([]Entity, error) { return p.client.Entities(ctx) })
}

func (p *Proxy) Relationships(ctx context.Context) ([]Relationship, error) {
	return cached(p.cache, "relationships", func() ([]Relationship, error) { return p.client.Relationships(ctx) })
}

func (p *Proxy) Assessments(ctx context.Context) ([]Assessment, error) {
	return cached(p.cache, "assessments", func() ([]Assessment, error) { return p.client.Assessments(ctx) })
}

func (p *Proxy) AssessmentsFor(ctx context.Context, personID int) ([]Assessment, error) {
	key := fmt.Sprintf("assessments_%d", personID)
	return cached(p.cache, key, func() ([]Assessment, error) { return p.client.AssessmentsFor(ctx, personID) })
}

// Clustering is a pass-through; clustering results depend on query
// parameters and are cheap upstream, so they are not cached.
func (p *Proxy) Clustering(ctx context.Context, nClusters int, attributes []string) (json.RawMessage, error) {
	return p.client.Clustering(ctx, nClusters, attributes)
}

func (p *Proxy) DeletePerson(ctx context.Context, personID int) error {
	if err := p.client.DeletePerson(ctx, personID); err != nil {
		return err
	}
	p.cache.InvalidateAll()
	return nil
}

func (p *Proxy) DeleteEntity(ctx context.Context, entityID int) error {
	if err := p.client.DeleteEntity(ctx, entityID); err != nil {
		return err
	}
	p.cache.InvalidateAll()
	return nil
}

func (p *Proxy) InvalidateAll() {
	p.cache.InvalidateAll()
}
