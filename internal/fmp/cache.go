package fmp

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// economicCache holds economic indicator series by indicator name until the TTL expires.
type economicCache struct {
	lru *expirable.LRU[string, map[string]any]
}

func newEconomicCache(size int, ttl time.Duration) *economicCache {
	if size <= 0 {
		size = 1024
	}
	return &economicCache{lru: expirable.NewLRU[string, map[string]any](size, nil, ttl)}
}

func (c *economicCache) get(name string) (map[string]any, bool) {
	return c.lru.Get(name)
}

// set stores a result. Error results are never cached.
func (c *economicCache) set(name string, result map[string]any) {
	if IsError(result) {
		return
	}
	c.lru.Add(name, result)
}

func (c *economicCache) size() int {
	return c.lru.Len()
}

// ClearEconomicCache drops every cached economic indicator series.
func (c *Client) ClearEconomicCache() {
	c.economic.lru.Purge()
}
