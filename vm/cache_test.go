package vm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheMissThenHit(t *testing.T) {
	cache := NewCache()
	source := "func main() -> i32 { return 7; }"

	result, err := Eval(context.Background(), source, WithCache(cache))
	require.Nil(t, err)
	require.Equal(t, int32(7), result.AsI32())

	stats := cache.Stats()
	require.Equal(t, 1, stats.Size)
	require.Equal(t, uint64(0), stats.Hits)
	require.Equal(t, uint64(1), stats.Misses)

	result, err = Eval(context.Background(), source, WithCache(cache))
	require.Nil(t, err)
	require.Equal(t, int32(7), result.AsI32())

	stats = cache.Stats()
	require.Equal(t, 1, stats.Size)
	require.Equal(t, uint64(1), stats.Hits)
	require.Equal(t, uint64(1), stats.Misses)
	require.Equal(t, 0.5, stats.HitRatio)
}

func TestCacheDistinguishesSources(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()

	_, err := Eval(ctx, "func main() -> i32 { return 1; }", WithCache(cache))
	require.Nil(t, err)
	_, err = Eval(ctx, "func main() -> i32 { return 2; }", WithCache(cache))
	require.Nil(t, err)

	stats := cache.Stats()
	require.Equal(t, 2, stats.Size)
	require.Equal(t, uint64(2), stats.Misses)
}

func TestCacheSharedModuleFreshInstances(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()
	source := "func main() -> i32 { return 3; }"

	for i := 0; i < 3; i++ {
		result, err := Eval(ctx, source, WithCache(cache))
		require.Nil(t, err)
		require.Equal(t, int32(3), result.AsI32())
	}
	require.Equal(t, uint64(2), cache.Stats().Hits)
}

func TestEmptyCacheStats(t *testing.T) {
	stats := NewCache().Stats()
	require.Equal(t, 0, stats.Size)
	require.Equal(t, 0.0, stats.HitRatio)
}
