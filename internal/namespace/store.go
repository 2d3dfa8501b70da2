package namespace

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps resolved locations keyed by public identifier
type Store interface {
	// Get returns the cached location or ErrMiss
	Get(ctx context.Context, publicID string) (string, error)

	// Set stores a location; a zero ttl uses the store default
	Set(ctx context.Context, publicID, location string, ttl time.Duration) error

	// Delete removes one entry
	Delete(ctx context.Context, publicID string) error

	// Clear removes every entry owned by the store
	Clear(ctx context.Context) error
}

// StoreConfig holds settings shared by store backends
type StoreConfig struct {
	// Prefix is prepended to every key
	Prefix string
	// DefaultTTL applies when Set is called with a zero ttl; zero keeps entries forever
	DefaultTTL time.Duration
}

// DefaultStoreConfig returns the default store configuration
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Prefix:     "ontograph:ns:",
		DefaultTTL: 24 * time.Hour,
	}
}

// RedisStore keeps resolutions in Redis
type RedisStore struct {
	client *redis.Client
	config StoreConfig
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	// Addr is the Redis server address (host:port)
	Addr string
	// Password is the Redis password (optional)
	Password string
	// DB is the Redis database number
	DB int
	// StoreConfig holds key prefix and default TTL
	StoreConfig StoreConfig
}

// DefaultRedisConfig returns a default Redis configuration
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:        "localhost:6379",
		StoreConfig: DefaultStoreConfig(),
	}
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(ctx context.Context, config RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return NewRedisStoreWithClient(client, config.StoreConfig), nil
}

// NewRedisStoreWithClient creates a store around an existing client
func NewRedisStoreWithClient(client *redis.Client, config StoreConfig) *RedisStore {
	return &RedisStore{client: client, config: config}
}

// Get retrieves a location
func (r *RedisStore) Get(ctx context.Context, publicID string) (string, error) {
	value, err := r.client.Get(ctx, r.config.Prefix+publicID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", err
	}
	return value, nil
}

// Set stores a location with a TTL
func (r *RedisStore) Set(ctx context.Context, publicID, location string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = r.config.DefaultTTL
	}
	return r.client.Set(ctx, r.config.Prefix+publicID, location, ttl).Err()
}

// Delete removes a location
func (r *RedisStore) Delete(ctx context.Context, publicID string) error {
	return r.client.Del(ctx, r.config.Prefix+publicID).Err()
}

// Clear removes all keys under the store prefix
func (r *RedisStore) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.config.Prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// MemoryStore keeps resolutions in process memory.
// Expired entries are dropped when they are read.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	config  StoreConfig
	now     func() time.Time
}

type memoryEntry struct {
	location   string
	expiration time.Time
}

// NewMemoryStore creates an in-memory store
func NewMemoryStore(config StoreConfig) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		config:  config,
		now:     time.Now,
	}
}

// Get retrieves a location
func (m *MemoryStore) Get(ctx context.Context, publicID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.config.Prefix + publicID
	entry, ok := m.entries[key]
	if !ok {
		return "", ErrMiss
	}
	if !entry.expiration.IsZero() && m.now().After(entry.expiration) {
		delete(m.entries, key)
		return "", ErrMiss
	}
	return entry.location, nil
}

// Set stores a location with a TTL
func (m *MemoryStore) Set(ctx context.Context, publicID, location string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}

	entry := memoryEntry{location: location}
	if ttl > 0 {
		entry.expiration = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[m.config.Prefix+publicID] = entry
	m.mu.Unlock()
	return nil
}

// Delete removes a location
func (m *MemoryStore) Delete(_ context.Context, publicID string) error {
	m.mu.Lock()
	delete(m.entries, m.config.Prefix+publicID)
	m.mu.Unlock()
	return nil
}

// Clear removes every entry
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}
