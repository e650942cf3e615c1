// Package memo caches objective evaluations.
//
// Bees that land on a position already visited (a zero patch, a clamped
// coordinate, a repeated scout on a degenerate axis) would otherwise pay for
// the objective again. Cached wraps an optimization.ObjectiveFunction with a
// bounded LRU keyed by the exact bit pattern of the position and collapses
// concurrent evaluations of the same position into one call.
package memo

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/heng-zhai/MSc-project/internal/optimization"
)

// Stats reports cache usage.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Shared int64 `json:"shared"`
	Size   int   `json:"size"`
}

// HitRate returns Hits / (Hits + Misses), or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cached is a memoizing objective. It is safe for concurrent use as long as
// the wrapped objective is.
type Cached struct {
	objective optimization.ObjectiveFunction
	cache     *lru.Cache[string, float64]
	group     singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
	shared atomic.Int64
}

// New wraps objective with a cache holding at most size positions.
func New(objective optimization.ObjectiveFunction, size int) (*Cached, error) {
	if objective == nil {
		return nil, optimization.InvalidConfigurationf("objective function is required").
			WithComponent("memo").
			WithOperation("New")
	}
	cache, err := lru.New[string, float64](size)
	if err != nil {
		return nil, optimization.WrapError(err, "failed to create evaluation cache").
			WithKind(optimization.KindInvalidConfiguration).
			WithComponent("memo").
			WithOperation("New")
	}
	return &Cached{objective: objective, cache: cache}, nil
}

// Wrap returns objective unchanged when size is not positive and a cached
// objective otherwise.
func Wrap(objective optimization.ObjectiveFunction, size int) (optimization.ObjectiveFunction, *Cached, error) {
	if size <= 0 {
		return objective, nil, nil
	}
	c, err := New(objective, size)
	if err != nil {
		return nil, nil, err
	}
	return c.Evaluate, c, nil
}

// Evaluate returns the cached value of point or evaluates it. Errors are
// never cached.
func (c *Cached) Evaluate(point []float64) (float64, error) {
	k := key(point)
	if v, ok := c.cache.Get(k); ok {
		c.hits.Add(1)
		return v, nil
	}
	c.misses.Add(1)

	// The objective must not keep the slice, but a shared caller may still
	// reuse it after we return.
	arg := append([]float64(nil), point...)
	v, err, shared := c.group.Do(k, func() (interface{}, error) {
		value, err := c.objective(arg)
		if err != nil {
			return 0.0, err
		}
		c.cache.Add(k, value)
		return value, nil
	})
	if shared {
		c.shared.Add(1)
	}
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// Stats returns a snapshot of the cache counters.
func (c *Cached) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Shared: c.shared.Load(),
		Size:   c.cache.Len(),
	}
}

// Purge drops every cached value.
func (c *Cached) Purge() {
	c.cache.Purge()
}

// String implements fmt.Stringer.
func (c *Cached) String() string {
	s := c.Stats()
	return fmt.Sprintf("memo{size=%d hits=%d misses=%d rate=%.2f}", s.Size, s.Hits, s.Misses, s.HitRate())
}

// key encodes the exact bit pattern of every coordinate, so 0 and -0 are
// distinct keys and no two different positions collide.
func key(point []float64) string {
	buf := make([]byte, 8*len(point))
	for i, x := range point {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(x))
	}
	return string(buf)
}
