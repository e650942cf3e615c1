package memo

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heng-zhai/MSc-project/internal/optimization"
)

func counting(calls *atomic.Int64) optimization.ObjectiveFunction {
	return func(x []float64) (float64, error) {
		calls.Add(1)
		var sum float64
		for _, v := range x {
			sum += v * v
		}
		return -sum, nil
	}
}

func TestCachedEvaluate(t *testing.T) {
	var calls atomic.Int64
	c, err := New(counting(&calls), 16)
	require.NoError(t, err)

	v, err := c.Evaluate([]float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, -5.0, v)

	v, err = c.Evaluate([]float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, -5.0, v)

	_, err = c.Evaluate([]float64{2, 1})
	require.NoError(t, err)

	assert.Equal(t, int64(2), calls.Load())
	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, 2, stats.Size)
	assert.InDelta(t, 1.0/3.0, stats.HitRate(), 1e-12)
	assert.Contains(t, c.String(), "hits=1")

	c.Purge()
	assert.Zero(t, c.Stats().Size)
}

func TestCachedEviction(t *testing.T) {
	var calls atomic.Int64
	c, err := New(counting(&calls), 2)
	require.NoError(t, err)

	for _, x := range []float64{1, 2, 3, 1} {
		_, err := c.Evaluate([]float64{x})
		require.NoError(t, err)
	}
	assert.Equal(t, int64(4), calls.Load(), "the oldest position was evicted")
	assert.Equal(t, 2, c.Stats().Size)
}

func TestCachedDistinguishesSignedZero(t *testing.T) {
	var calls atomic.Int64
	c, err := New(counting(&calls), 8)
	require.NoError(t, err)

	_, _ = c.Evaluate([]float64{0})
	_, _ = c.Evaluate([]float64{math.Copysign(0, -1)})
	assert.Equal(t, int64(2), calls.Load())
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	boom := errors.New("boom")
	fail := true
	c, err := New(func([]float64) (float64, error) {
		if fail {
			return 0, boom
		}
		return 7, nil
	}, 4)
	require.NoError(t, err)

	_, err = c.Evaluate([]float64{1})
	assert.ErrorIs(t, err, boom)

	fail = false
	v, err := c.Evaluate([]float64{1})
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)
}

func TestCachedConcurrentUse(t *testing.T) {
	var calls atomic.Int64
	c, err := New(counting(&calls), 64)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				v, err := c.Evaluate([]float64{float64(i % 10)})
				assert.NoError(t, err)
				assert.Equal(t, -float64((i%10)*(i%10)), v)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int64(8*10))
	stats := c.Stats()
	assert.Equal(t, int64(800), stats.Hits+stats.Misses)
}

func TestNewRejectsInvalidInput(t *testing.T) {
	_, err := New(nil, 4)
	assert.ErrorIs(t, err, optimization.ErrInvalidConfiguration)

	_, err = New(counting(new(atomic.Int64)), 0)
	assert.ErrorIs(t, err, optimization.ErrInvalidConfiguration)
}

func TestWrap(t *testing.T) {
	var calls atomic.Int64
	objective := counting(&calls)

	same, cached, err := Wrap(objective, 0)
	require.NoError(t, err)
	assert.Nil(t, cached)
	_, _ = same([]float64{1})
	_, _ = same([]float64{1})
	assert.Equal(t, int64(2), calls.Load())

	wrapped, cached, err := Wrap(objective, 4)
	require.NoError(t, err)
	require.NotNil(t, cached)
	_, _ = wrapped([]float64{1})
	_, _ = wrapped([]float64{1})
	assert.Equal(t, int64(3), calls.Load())
}
