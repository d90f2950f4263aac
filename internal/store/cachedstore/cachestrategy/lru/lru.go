// Package lru implements an LRU cache eviction strategy.
package lru

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/discochess/pageviews/internal/store/cachedstore/cachestrategy"
)

// Compile-time check that Strategy implements cachestrategy.Strategy.
var _ cachestrategy.Strategy = (*Strategy)(nil)

// Strategy implements LRU eviction.
type Strategy struct {
	cache *lru.Cache[string, struct{}]
}

// New creates a new LRU strategy with the given capacity.
func New(capacity int) (*Strategy, error) {
	c, err := lru.New[string, struct{}](capacity)
	if err != nil {
		return nil, err
	}
	return &Strategy{cache: c}, nil
}

// Contains reports whether key is cached and marks it recently used.
func (s *Strategy) Contains(key string) bool {
	_, ok := s.cache.Get(key)
	return ok
}

// Add caches key, evicting the least recently used key when full.
func (s *Strategy) Add(key string) bool {
	return s.cache.Add(key, struct{}{})
}

// Len returns the number of keys in the cache.
func (s *Strategy) Len() int {
	return s.cache.Len()
}
