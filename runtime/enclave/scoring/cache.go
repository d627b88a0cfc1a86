package scoring

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheKey deterministically identifies a Request for caching purposes. Two
// requests with identical source, security level, and global name set share
// a cache entry regardless of global value order.
func cacheKey(req Request) string {
	h := sha256.New()
	h.Write([]byte(req.Source))
	h.Write([]byte{0})
	h.Write([]byte(req.SecurityLevel))
	h.Write([]byte{0})
	for _, g := range req.Globals {
		h.Write([]byte(g))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Cached wraps an upstream Gate with a bounded in-process LRU cache, keyed
// by a hash of the scoring request. It avoids re-scoring identical
// AgentScript source across repeated executions of the same workflow step.
type Cached struct {
	upstream Gate
	cache    *lru.Cache[string, *Result]
}

// NewCached constructs a Cached Gate wrapping upstream with an LRU of the
// given size.
func NewCached(upstream Gate, size int) (*Cached, error) {
	c, err := lru.New[string, *Result](size)
	if err != nil {
		return nil, err
	}
	return &Cached{upstream: upstream, cache: c}, nil
}

// Score implements Gate, consulting the cache before calling upstream.
func (c *Cached) Score(ctx context.Context, req Request) (*Result, error) {
	key := cacheKey(req)
	if cached, ok := c.cache.Get(key); ok {
		return cached, nil
	}
	result, err := c.upstream.Score(ctx, req)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, result)
	return result, nil
}

// marshalResult and unmarshalResult support RedisCache's wire encoding.
func marshalResult(r *Result) ([]byte, error) { return json.Marshal(r) }

func unmarshalResult(data []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
