package adapter

import (
	"context"
	"sync"
	"time"

	"go-presence/internal/infrastructure/cache/port"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is a single-process port.Cache. Presence kept here is only
// consistent within one server instance.
type MemoryCache struct {
	mu      sync.Mutex
	values  map[string]memoryEntry
	sets    map[string]map[string]struct{}
	hashes  map[string]map[string]int64
	nowFunc func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		values:  make(map[string]memoryEntry),
		sets:    make(map[string]map[string]struct{}),
		hashes:  make(map[string]map[string]int64),
		nowFunc: time.Now,
	}
}

var _ port.Cache = (*MemoryCache)(nil)

func (m *MemoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.values[key]
	if !ok {
		return "", port.ErrMiss
	}
	if !e.expiresAt.IsZero() && !m.nowFunc().Before(e.expiresAt) {
		delete(m.values, key)
		return "", port.ErrMiss
	}
	return e.value, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.nowFunc().Add(ttl)
	}
	m.values[key] = e
	return nil
}

func (m *MemoryCache) Del(_ context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.values[k]; ok {
			delete(m.values, k)
			n++
			continue
		}
		if _, ok := m.sets[k]; ok {
			delete(m.sets, k)
			n++
			continue
		}
		if _, ok := m.hashes[k]; ok {
			delete(m.hashes, k)
			n++
		}
	}
	return n, nil
}

func (m *MemoryCache) SAdd(_ context.Context, key string, members ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := m.sets[key]
	if set == nil {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	var added int64
	for _, member := range members {
		if _, ok := set[member]; ok {
			continue
		}
		set[member] = struct{}{}
		added++
	}
	if len(set) == 0 {
		delete(m.sets, key)
	}
	return added, nil
}

func (m *MemoryCache) SRem(_ context.Context, key string, members ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := m.sets[key]
	if set == nil {
		return 0, nil
	}
	var removed int64
	for _, member := range members {
		if _, ok := set[member]; ok {
			delete(set, member)
			removed++
		}
	}
	if len(set) == 0 {
		delete(m.sets, key)
	}
	return removed, nil
}

func (m *MemoryCache) SIsMember(_ context.Context, key string, member string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sets[key][member]
	return ok, nil
}

func (m *MemoryCache) SCard(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.sets[key])), nil
}

func (m *MemoryCache) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := m.sets[key]
	out := make([]string, 0, len(set))
	for member := range set {
		out = append(out, member)
	}
	return out, nil
}

func (m *MemoryCache) HIncrBy(_ context.Context, key string, field string, incr int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.hashes[key]
	if h == nil {
		h = make(map[string]int64)
		m.hashes[key] = h
	}
	h[field] += incr
	return h[field], nil
}

func (m *MemoryCache) HDel(_ context.Context, key string, fields ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.hashes[key]
	var n int64
	for _, f := range fields {
		if _, ok := h[f]; ok {
			delete(h, f)
			n++
		}
	}
	if h != nil && len(h) == 0 {
		delete(m.hashes, key)
	}
	return n, nil
}

func (m *MemoryCache) AcquireMember(_ context.Context, countKey, setKey, member string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.hashes[countKey]
	if h == nil {
		h = make(map[string]int64)
		m.hashes[countKey] = h
	}
	h[member]++

	set := m.sets[setKey]
	if set == nil {
		set = make(map[string]struct{})
		m.sets[setKey] = set
	}
	_, present := set[member]
	set[member] = struct{}{}
	return h[member], !present, nil
}

func (m *MemoryCache) ReleaseMember(_ context.Context, countKey, setKey, member string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.hashes[countKey]
	if h == nil {
		h = make(map[string]int64)
		m.hashes[countKey] = h
	}
	h[member]--
	if n := h[member]; n > 0 {
		return n, false, nil
	}

	delete(h, member)
	if len(h) == 0 {
		delete(m.hashes, countKey)
	}
	set := m.sets[setKey]
	_, present := set[member]
	delete(set, member)
	if set != nil && len(set) == 0 {
		delete(m.sets, setKey)
	}
	return 0, present, nil
}

func (m *MemoryCache) Ping(context.Context) error { return nil }

func (m *MemoryCache) Close() error { return nil }
