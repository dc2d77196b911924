package sink

import (
	"context"

	"arbmonitor/internal/adapters"
	"arbmonitor/internal/domain"
)

// CacheSink keeps the latest batch in memory for the read API.
type CacheSink struct {
	cache adapters.BatchCache
}

func NewCacheSink(cache adapters.BatchCache) *CacheSink { return &CacheSink{cache: cache} }

func (s *CacheSink) Name() string { return "cache" }

func (s *CacheSink) RunInter(_ context.Context, batch domain.InterBatch) error {
	s.cache.SetInter(batch)
	return nil
}

func (s *CacheSink) RunTri(_ context.Context, batch domain.TriBatch) error {
	s.cache.SetTri(batch)
	return nil
}
