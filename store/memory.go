package store

import (
	"container/heap"
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/tibrahul/Radicchio/internal/logging"
	"github.com/tibrahul/Radicchio/types"
)

// DefaultNotificationBuffer is the per-subscription channel capacity.
const DefaultNotificationBuffer = 1024

// errWrongType mirrors the store's WRONGTYPE reply.
var errWrongType = errors.New("WRONGTYPE operation against a key holding the wrong kind of value")

// Memory is an in-process types.Store.
//
// All state lives behind a single mutex. Expiring keys are tracked in a
// min-heap drained both lazily on every access and by a background goroutine,
// so expiry notifications fire even while nobody touches the store.
// Notifications are sent without blocking: a subscriber whose buffer is full
// misses them, just like a client of the real notification channel would.
type Memory struct {
	mu       sync.Mutex
	strings  map[string]*stringEntry
	sets     map[string]map[string]struct{}
	hashes   map[string]map[string][]byte
	expiries expiryHeap

	subs      *xsync.Map[uint64, *memorySubscription]
	nextSubID atomic.Uint64
	dropped   atomic.Uint64

	bufferSize int
	logger     types.Logger

	wake     chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// Compile-time assertion that Memory implements Store.
var _ types.Store = (*Memory)(nil)

type stringEntry struct {
	value    string
	expireAt time.Time // zero means no expiry
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithMemoryBuffer sets the per-subscription notification buffer size.
func WithMemoryBuffer(size int) MemoryOption {
	return func(m *Memory) {
		if size > 0 {
			m.bufferSize = size
		}
	}
}

// WithMemoryLogger sets the logger used for dropped notifications.
func WithMemoryLogger(logger types.Logger) MemoryOption {
	return func(m *Memory) {
		m.logger = logging.OrNop(logger)
	}
}

// NewMemory creates an in-process store and starts its expiry goroutine.
//
// Call Close to stop the goroutine and end all subscriptions.
//
// Example:
//
//	st := store.NewMemory()
//	defer st.Close()
//	cfg := radicchio.DefaultConfig()
//	mgr, err := radicchio.NewManager(&cfg, st)
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		strings:    make(map[string]*stringEntry),
		sets:       make(map[string]map[string]struct{}),
		hashes:     make(map[string]map[string][]byte),
		subs:       xsync.NewMap[uint64, *memorySubscription](),
		bufferSize: DefaultNotificationBuffer,
		logger:     logging.NewNop(),
		wake:       make(chan struct{}, 1),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	go m.expireLoop()

	return m
}

// Close stops the expiry goroutine and closes every open subscription.
// It is safe to call Close multiple times.
func (m *Memory) Close() error {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		<-m.doneCh

		m.mu.Lock()
		m.subs.Range(func(id uint64, sub *memorySubscription) bool {
			sub.closeLocked()
			m.subs.Delete(id)

			return true
		})
		m.mu.Unlock()
	})

	return nil
}

// Dropped returns how many notifications were discarded because a subscriber
// buffer was full.
func (m *Memory) Dropped() uint64 {
	return m.dropped.Load()
}

// Create implements types.Store.
func (m *Memory) Create(ctx context.Context, timerRegistry, timerID, dataRegistry string, ttl time.Duration, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return types.StoreError("create", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tickLocked()

	if m.existsLocked(timerID) {
		return types.ErrTimerExists
	}
	if err := m.checkTypeLocked(timerRegistry, kindSet); err != nil {
		return types.StoreError("create", err)
	}
	if err := m.checkTypeLocked(dataRegistry, kindHash); err != nil {
		return types.StoreError("create", err)
	}

	m.saddLocked(timerRegistry, timerID)
	m.setLocked(timerID, "", now.Add(ttl))
	m.hsetLocked(dataRegistry, timerID, payload)

	return nil
}

// TimeLeft implements types.Store.
func (m *Memory) TimeLeft(ctx context.Context, timerID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, types.StoreError("time_left", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tickLocked()

	return m.pttlLocked(timerID, now), nil
}

// Delete implements types.Store.
func (m *Memory) Delete(ctx context.Context, timerRegistry, dataRegistry, timerID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.StoreError("delete", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickLocked()

	if !m.existsLocked(timerID) {
		return nil, types.ErrNotFound
	}
	payload, ok := m.hashes[dataRegistry][timerID]
	if !ok {
		return nil, types.ErrNotFound
	}

	m.hdelLocked(dataRegistry, timerID)
	m.sremLocked(timerRegistry, timerID)
	m.delLocked(timerID)

	return payload, nil
}

// Suspend implements types.Store.
func (m *Memory) Suspend(ctx context.Context, timerRegistry, timerID, markerKey string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, types.StoreError("suspend", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tickLocked()

	remaining := m.pttlLocked(timerID, now)
	if remaining <= 0 {
		return false, nil
	}

	m.sremLocked(timerRegistry, timerID)
	m.setLocked(timerID, strconv.FormatInt(remaining, 10), time.Time{})
	m.setLocked(markerKey, "1", time.Time{})
	m.delLocked(markerKey)

	return true, nil
}

// Resume implements types.Store.
func (m *Memory) Resume(ctx context.Context, timerRegistry, timerID, markerKey string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, types.StoreError("resume", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tickLocked()

	if m.pttlLocked(timerID, now) != -1 {
		return false, nil
	}
	entry, ok := m.strings[timerID]
	if !ok {
		return false, types.StoreError("resume", errWrongType)
	}
	remaining, err := strconv.ParseInt(entry.value, 10, 64)
	if err != nil || remaining <= 0 {
		return false, nil
	}
	if err := m.checkTypeLocked(timerRegistry, kindSet); err != nil {
		return false, types.StoreError("resume", err)
	}

	m.setLocked(timerID, "", now.Add(time.Duration(remaining)*time.Millisecond))
	m.saddLocked(timerRegistry, timerID)
	m.setLocked(markerKey, "1", now.Add(time.Millisecond))

	return true, nil
}

// Members implements types.Store.
func (m *Memory) Members(ctx context.Context, registry string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.StoreError("members", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickLocked()

	if set, ok := m.sets[registry]; ok {
		out := make([]string, 0, len(set))
		for id := range set {
			out = append(out, id)
		}

		return out, nil
	}
	if hash, ok := m.hashes[registry]; ok {
		out := make([]string, 0, len(hash))
		for id := range hash {
			out = append(out, id)
		}

		return out, nil
	}

	return []string{}, nil
}

// Payload implements types.Store.
func (m *Memory) Payload(ctx context.Context, dataRegistry, timerID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.StoreError("payload", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickLocked()

	payload, ok := m.hashes[dataRegistry][timerID]
	if !ok {
		return nil, types.ErrNotFound
	}

	return append([]byte(nil), payload...), nil
}

// RemoveFromBoth implements types.Store.
func (m *Memory) RemoveFromBoth(ctx context.Context, timerRegistry, dataRegistry, timerID string) error {
	if err := ctx.Err(); err != nil {
		return types.StoreError("remove_from_both", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickLocked()

	m.sremLocked(timerRegistry, timerID)
	m.hdelLocked(dataRegistry, timerID)

	return nil
}

// CountExisting implements types.Store.
func (m *Memory) CountExisting(ctx context.Context, keys ...string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, types.StoreError("count_existing", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickLocked()

	n := 0
	for _, key := range keys {
		if m.existsLocked(key) {
			n++
		}
	}

	return n, nil
}

// Subscribe implements types.Store.
func (m *Memory) Subscribe(ctx context.Context) (types.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.StoreError("subscribe", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.stopCh:
		return nil, types.StoreError("subscribe", types.ErrSubscriptionClosed)
	default:
	}

	sub := &memorySubscription{
		id:    m.nextSubID.Add(1),
		store: m,
		ch:    make(chan types.Notification, m.bufferSize),
	}
	m.subs.Store(sub.id, sub)

	return sub, nil
}

// memorySubscription is a types.Subscription on a Memory store.
type memorySubscription struct {
	id     uint64
	store  *Memory
	ch     chan types.Notification
	closed bool // guarded by store.mu
}

// C implements types.Subscription.
func (s *memorySubscription) C() <-chan types.Notification {
	return s.ch
}

// Close implements types.Subscription.
func (s *memorySubscription) Close() error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	s.store.subs.Delete(s.id)
	s.closeLocked()

	return nil
}

func (s *memorySubscription) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Key-level primitives. All of them expect m.mu to be held.

type valueKind int

const (
	kindNone valueKind = iota
	kindString
	kindSet
	kindHash
)

func (m *Memory) kindLocked(key string) valueKind {
	if _, ok := m.strings[key]; ok {
		return kindString
	}
	if _, ok := m.sets[key]; ok {
		return kindSet
	}
	if _, ok := m.hashes[key]; ok {
		return kindHash
	}

	return kindNone
}

func (m *Memory) checkTypeLocked(key string, want valueKind) error {
	if k := m.kindLocked(key); k != kindNone && k != want {
		return errWrongType
	}

	return nil
}

func (m *Memory) existsLocked(key string) bool {
	return m.kindLocked(key) != kindNone
}

// pttlLocked follows PTTL: -2 missing, -1 no expiry, otherwise remaining millis.
func (m *Memory) pttlLocked(key string, now time.Time) int64 {
	entry, ok := m.strings[key]
	if !ok {
		if m.existsLocked(key) {
			return -1
		}

		return -2
	}
	if entry.expireAt.IsZero() {
		return -1
	}

	left := entry.expireAt.Sub(now).Milliseconds()
	if left < 0 {
		left = 0
	}

	return left
}

// setLocked overwrites key as a string. A zero expireAt clears any TTL,
// a non-zero one arms it and emits an expiry-armed notification.
func (m *Memory) setLocked(key, value string, expireAt time.Time) {
	delete(m.sets, key)
	delete(m.hashes, key)
	m.strings[key] = &stringEntry{value: value, expireAt: expireAt}

	if !expireAt.IsZero() {
		heap.Push(&m.expiries, &expiryItem{key: key, at: expireAt})
		m.signalWake()
		m.publishLocked(types.NotificationExpiryArmed, key)
	}
}

func (m *Memory) delLocked(key string) {
	if !m.existsLocked(key) {
		return
	}
	delete(m.strings, key)
	delete(m.sets, key)
	delete(m.hashes, key)
	m.publishLocked(types.NotificationDeleted, key)
}

func (m *Memory) saddLocked(key, member string) {
	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	set[member] = struct{}{}
}

// sremLocked removes member and deletes the set once it is empty.
func (m *Memory) sremLocked(key, member string) {
	set, ok := m.sets[key]
	if !ok {
		return
	}
	if _, ok := set[member]; !ok {
		return
	}
	delete(set, member)
	if len(set) == 0 {
		delete(m.sets, key)
		m.publishLocked(types.NotificationDeleted, key)
	}
}

func (m *Memory) hsetLocked(key, field string, value []byte) {
	hash, ok := m.hashes[key]
	if !ok {
		hash = make(map[string][]byte)
		m.hashes[key] = hash
	}
	hash[field] = append([]byte(nil), value...)
}

// hdelLocked removes field and deletes the hash once it is empty.
func (m *Memory) hdelLocked(key, field string) {
	hash, ok := m.hashes[key]
	if !ok {
		return
	}
	if _, ok := hash[field]; !ok {
		return
	}
	delete(hash, field)
	if len(hash) == 0 {
		delete(m.hashes, key)
		m.publishLocked(types.NotificationDeleted, key)
	}
}

func (m *Memory) publishLocked(kind types.NotificationKind, key string) {
	n := types.Notification{Kind: kind, Key: key}
	m.subs.Range(func(_ uint64, sub *memorySubscription) bool {
		if sub.closed {
			return true
		}
		select {
		case sub.ch <- n:
		default:
			m.dropped.Add(1)
			m.logger.Debug("notification dropped", "kind", kind.String(), "key", key)
		}

		return true
	})
}

// Expiry handling.

type expiryItem struct {
	key string
	at  time.Time
}

type expiryHeap []*expiryItem

func (h expiryHeap) Len() int           { return len(h) }
func (h expiryHeap) Less(i, j int) bool { return h[i].at.Before(h[j].at) }
func (h expiryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *expiryHeap) Push(x any) {
	*h = append(*h, x.(*expiryItem))
}

func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]

	return item
}

// tickLocked expires every due key and returns the current time.
func (m *Memory) tickLocked() time.Time {
	now := time.Now()
	for m.expiries.Len() > 0 {
		next := m.expiries[0]
		if next.at.After(now) {
			break
		}
		heap.Pop(&m.expiries)

		// Stale items point at keys that were re-set or persisted since.
		entry, ok := m.strings[next.key]
		if !ok || !entry.expireAt.Equal(next.at) {
			continue
		}
		delete(m.strings, next.key)
		m.publishLocked(types.NotificationExpired, next.key)
	}

	return now
}

func (m *Memory) signalWake() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// expireLoop drives expiry while the store is idle.
func (m *Memory) expireLoop() {
	defer close(m.doneCh)

	const idle = time.Minute
	timer := time.NewTimer(idle)
	defer timer.Stop()

	for {
		m.mu.Lock()
		now := m.tickLocked()
		wait := idle
		if m.expiries.Len() > 0 {
			wait = m.expiries[0].at.Sub(now)
		}
		m.mu.Unlock()

		timer.Reset(wait)

		select {
		case <-m.stopCh:
			return
		case <-m.wake:
		case <-timer.C:
		}
	}
}
