package cache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"
)

// ErrUnsupportedValue indica um tipo que o MemoryClient não sabe serializar.
var ErrUnsupportedValue = errors.New("cache: tipo de valor não suportado")

// MemoryClient é um Client em memória. Usado quando o Redis está indisponível
// e nos testes.
type MemoryClient struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	value     string
	expiresAt time.Time
}

// NewMemoryClient cria um cache vazio.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{items: make(map[string]memoryItem), now: time.Now}
}

func (c *MemoryClient) lookup(key string) (memoryItem, bool) {
	it, ok := c.items[key]
	if !ok {
		return memoryItem{}, false
	}
	if !it.expiresAt.IsZero() && !c.now().Before(it.expiresAt) {
		delete(c.items, key)
		return memoryItem{}, false
	}
	return it, true
}

func (c *MemoryClient) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.lookup(key)
	if !ok {
		return "", ErrCacheMiss
	}
	return it.value, nil
}

func (c *MemoryClient) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	default:
		return ErrUnsupportedValue
	}
	it := memoryItem{value: s}
	if expiration > 0 {
		it.expiresAt = c.now().Add(expiration)
	}
	c.items[key] = it
	return nil
}

func (c *MemoryClient) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

func (c *MemoryClient) GetInt(_ context.Context, key string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.lookup(key)
	if !ok {
		return 0, ErrCacheMiss
	}
	return strconv.Atoi(it.value)
}

func (c *MemoryClient) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, _ := c.lookup(key)
	n, _ := strconv.ParseInt(it.value, 10, 64)
	n++
	it.value = strconv.FormatInt(n, 10)
	c.items[key] = it
	return n, nil
}
