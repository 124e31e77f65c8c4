package utility

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Names []string `json:"names"`
	Count int      `json:"count"`
}

func TestMemoryCache_SetGetInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)
	defer c.Close()

	var got payload
	found, err := c.Get(ctx, "insights", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "insights", payload{Names: []string{"An"}, Count: 1}, time.Minute))
	found, err = c.Get(ctx, "insights", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Names: []string{"An"}, Count: 1}, got)

	// sửa bản đọc ra không ảnh hưởng dữ liệu trong cache
	got.Names[0] = "Bình"
	var again payload
	_, _ = c.Get(ctx, "insights", &again)
	assert.Equal(t, "An", again.Names[0])

	require.NoError(t, c.Invalidate(ctx, "insights"))
	require.NoError(t, c.Invalidate(ctx, "insights"))
	found, _ = c.Get(ctx, "insights", &got)
	assert.False(t, found)
}

func TestMemoryCache_PerEntryTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)
	defer c.Close()

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "short", 1, time.Second))
	require.NoError(t, c.Set(ctx, "long", 2, time.Hour))
	require.NoError(t, c.Set(ctx, "forever", 3, 0))

	now = now.Add(2 * time.Second)

	var v int
	found, _ := c.Get(ctx, "short", &v)
	assert.False(t, found)
	found, _ = c.Get(ctx, "long", &v)
	assert.True(t, found)
	assert.Equal(t, 2, v)

	c.purgeExpired()
	assert.Equal(t, 2, c.Len())

	now = now.Add(24 * time.Hour)
	c.purgeExpired()
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_Concurrent(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Millisecond)
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.Set(ctx, "k", i, time.Second)
			var v int
			_, _ = c.Get(ctx, "k", &v)
			_ = c.Invalidate(ctx, "k")
		}(i)
	}
	wg.Wait()
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestConnectRedis_ParsesURL(t *testing.T) {
	client, err := ConnectRedis("redis://:secret@localhost:6380/2")
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "localhost:6380", client.Options().Addr)
	assert.Equal(t, 2, client.Options().DB)

	client, err = ConnectRedis("cache:6379")
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "cache:6379", client.Options().Addr)

	_, err = ConnectRedis("redis://localhost:6379/notanumber")
	assert.Error(t, err)
}
