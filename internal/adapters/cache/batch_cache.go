package cache

import (
	"fmt"

	"arbmonitor/internal/domain"

	"github.com/dgraph-io/ristretto"
)

const (
	interKey = "latest:inter"
	triKey   = "latest:tri"
)

// RistrettoBatchCache holds the most recent batch of each monitor type.
type RistrettoBatchCache struct {
	cache *ristretto.Cache
}

func NewBatchCache(maxItems int64) (*RistrettoBatchCache, error) {
	if maxItems < 2 {
		maxItems = 2
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * maxItems,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create batch cache failed: %w", err)
	}
	return &RistrettoBatchCache{cache: c}, nil
}

// SetInter stores the batch and waits until it is visible to readers.
func (c *RistrettoBatchCache) SetInter(batch domain.InterBatch) {
	c.cache.Set(interKey, batch, 1)
	c.cache.Wait()
}

func (c *RistrettoBatchCache) LatestInter() (domain.InterBatch, bool) {
	if v, ok := c.cache.Get(interKey); ok {
		batch, ok := v.(domain.InterBatch)
		return batch, ok
	}
	return domain.InterBatch{}, false
}

func (c *RistrettoBatchCache) SetTri(batch domain.TriBatch) {
	c.cache.Set(triKey, batch, 1)
	c.cache.Wait()
}

func (c *RistrettoBatchCache) LatestTri() (domain.TriBatch, bool) {
	if v, ok := c.cache.Get(triKey); ok {
		batch, ok := v.(domain.TriBatch)
		return batch, ok
	}
	return domain.TriBatch{}, false
}

func (c *RistrettoBatchCache) Close() { c.cache.Close() }
