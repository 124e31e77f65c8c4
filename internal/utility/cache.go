package utility

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Cache bộ nhớ đệm do caller sở hữu và truyền vào qua constructor.
// Giá trị được lưu dạng JSON nên dữ liệu đọc ra không dùng chung vùng nhớ với dữ liệu đã ghi.
type Cache interface {
	// Get đọc key vào dest, found=false nếu không có hoặc đã hết hạn
	Get(ctx context.Context, key string, dest interface{}) (found bool, err error)
	// Set ghi value với thời gian sống ttl (<= 0 = không hết hạn)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Invalidate xoá key, không lỗi nếu key không tồn tại
	Invalidate(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

type memoryItem struct {
	data      []byte
	expiresAt time.Time // zero = không hết hạn
}

// MemoryCache cache trong process, mỗi key có hạn riêng, goroutine dọn dẹp định kỳ
type MemoryCache struct {
	items    map[string]memoryItem
	mu       sync.RWMutex
	cleanup  time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewMemoryCache tạo cache, cleanup <= 0 thì không chạy goroutine dọn dẹp (key hết hạn vẫn bị bỏ qua khi Get)
func NewMemoryCache(cleanup time.Duration) *MemoryCache {
	c := &MemoryCache{
		items:    make(map[string]memoryItem),
		cleanup:  cleanup,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
	if cleanup > 0 {
		go c.cleanupLoop()
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || c.expired(item) {
		return false, nil
	}
	if err := json.Unmarshal(item.data, dest); err != nil {
		return false, fmt.Errorf("decode cache %s: %w", key, err)
	}
	return true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache %s: %w", key, err)
	}
	item := memoryItem{data: data}
	if ttl > 0 {
		item.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Ping(context.Context) error {
	return nil
}

// Len số key còn trong map (kể cả key hết hạn chưa dọn)
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close dừng goroutine dọn dẹp, gọi nhiều lần không sao
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stopChan) })
	return nil
}

func (c *MemoryCache) expired(item memoryItem) bool {
	return !item.expiresAt.IsZero() && !c.now().Before(item.expiresAt)
}

func (c *MemoryCache) purgeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, item := range c.items {
		if c.expired(item) {
			delete(c.items, k)
		}
	}
}

func (c *MemoryCache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.purgeExpired()
		case <-c.stopChan:
			return
		}
	}
}
