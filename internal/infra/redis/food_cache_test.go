package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"foodvision/internal/domain"
	"foodvision/internal/domain/model"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type fakeRedis struct {
	mu    sync.Mutex
	store map[string]string
	sets  int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{store: make(map[string]string)}
}

func (f *fakeRedis) Ping(ctx context.Context) error { return nil }

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.store[key] = string(v)
	case string:
		f.store[key] = v
	}
	f.sets++
	return nil
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.store[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.store, k)
	}
	return nil
}

func (f *fakeRedis) Close() error { return nil }

type countingInner struct {
	mu    sync.Mutex
	store map[string]*model.CacheEntry
	gets  int
}

func newCountingInner() *countingInner {
	return &countingInner{store: make(map[string]*model.CacheEntry)}
}

func (r *countingInner) Get(ctx context.Context, name string) (*model.CacheEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	e, ok := r.store[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *countingInner) Upsert(ctx context.Context, entry *model.CacheEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	r.store[entry.Name] = &cp
	return nil
}

func TestGetFallsThroughThenCaches(t *testing.T) {
	inner := newCountingInner()
	inner.store["banana"] = &model.CacheEntry{
		Name:    "banana",
		PerBase: model.Macros{Calories: 89},
	}
	hot := newFakeRedis()
	d := NewFoodCacheDecorator(inner, hot, time.Minute, testLogger())

	for i := 0; i < 3; i++ {
		entry, err := d.Get(context.Background(), "banana")
		if err != nil {
			t.Fatalf("Get #%d: %v", i, err)
		}
		if entry.PerBase.Calories != 89 {
			t.Errorf("entry = %+v", entry)
		}
	}
	// First read misses the hot layer, the rest are served from it.
	if inner.gets != 1 {
		t.Errorf("durable store reads = %d, want 1", inner.gets)
	}
}

func TestGetMissPropagatesNotFound(t *testing.T) {
	d := NewFoodCacheDecorator(newCountingInner(), newFakeRedis(), time.Minute, testLogger())

	if _, err := d.Get(context.Background(), "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpsertWritesThrough(t *testing.T) {
	inner := newCountingInner()
	hot := newFakeRedis()
	d := NewFoodCacheDecorator(inner, hot, time.Minute, testLogger())

	entry := &model.CacheEntry{
		Name:     "rice",
		PerBase:  model.Macros{Calories: 130},
		BaseUnit: model.BaseUnit,
	}
	if err := d.Upsert(context.Background(), entry); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// The very next read is a hot hit: no durable store involved.
	if _, err := d.Get(context.Background(), "rice"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if inner.gets != 0 {
		t.Errorf("durable store reads = %d, want 0 after write-through", inner.gets)
	}
}
