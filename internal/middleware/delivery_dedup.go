package middleware

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DeliveryDeduper tracks verified gateway deliveries that were already applied.
type DeliveryDeduper interface {
	// Seen records key and reports whether it was recorded before within the TTL.
	Seen(ctx context.Context, key string) (bool, error)
	// Forget drops key so that a redelivery is processed again.
	Forget(ctx context.Context, key string) error
}

// DeliveryKey joins the parts that identify one gateway delivery.
func DeliveryKey(gateway string, parts ...string) string {
	return gateway + ":" + strings.Join(parts, ":")
}

type redisDeliveryDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (d *redisDeliveryDeduper) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+":"+key, "1", d.ttl).Result()
	if err != nil {
		return false, err
	}
	// false => already exists => duplicate
	return !ok, nil
}

func (d *redisDeliveryDeduper) Forget(ctx context.Context, key string) error {
	return d.client.Del(ctx, d.prefix+":"+key).Err()
}

type memoryDeliveryDeduper struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	ttl    time.Duration
	nextGC time.Time
	now    func() time.Time
}

func newMemoryDeliveryDeduper(ttl time.Duration) *memoryDeliveryDeduper {
	now := time.Now()
	return &memoryDeliveryDeduper{
		seen:   make(map[string]time.Time),
		ttl:    ttl,
		nextGC: now.Add(ttl),
		now:    time.Now,
	}
}

func (d *memoryDeliveryDeduper) Seen(_ context.Context, key string) (bool, error) {
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if exp, ok := d.seen[key]; ok && exp.After(now) {
		return true, nil
	}

	d.seen[key] = now.Add(d.ttl)
	if now.After(d.nextGC) {
		for k, exp := range d.seen {
			if exp.Before(now) {
				delete(d.seen, k)
			}
		}
		d.nextGC = now.Add(d.ttl)
	}

	return false, nil
}

func (d *memoryDeliveryDeduper) Forget(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
	return nil
}

// NewDeliveryDeduper builds a Redis deduper and falls back to in-memory on failure.
func NewDeliveryDeduper(addr, pass string, db int, ttl time.Duration) (DeliveryDeduper, error) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if addr == "" {
		return newMemoryDeliveryDeduper(ttl), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return newMemoryDeliveryDeduper(ttl), err
	}

	return &redisDeliveryDeduper{
		client: client,
		prefix: "pay:delivery",
		ttl:    ttl,
	}, nil
}
