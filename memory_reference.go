package knuffimap

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/puzpuzpuz/xsync/v3"
)

var _ Reference = (*MemoryReference)(nil)

// MemoryReference is a Reference kept in memory. Like a realtime database
// reference, a new child added listener is first told about every existing
// child, in key order.
type MemoryReference struct {
	mu        sync.Mutex
	children  map[string]interface{}
	listeners map[EventType]*xsync.MapOf[uint64, Listener]
	nextID    atomic.Uint64
	entropy   *ulid.MonotonicEntropy
	loadErr   error
}

func NewMemoryReference(children map[string]interface{}) *MemoryReference {
	r := &MemoryReference{
		children:  make(map[string]interface{}, len(children)),
		listeners: make(map[EventType]*xsync.MapOf[uint64, Listener]),
		entropy:   ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
	for _, t := range []EventType{ChildAdded, ChildChanged, ChildRemoved, ChildMoved} {
		r.listeners[t] = xsync.NewMapOf[uint64, Listener]()
	}
	for k, v := range children {
		r.children[k] = v
	}
	return r
}

func (r *MemoryReference) OnChildAdded(l Listener) Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.children))
	for k := range r.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		l(ChildEvent{Type: ChildAdded, Key: k, Value: r.children[k]})
	}
	return r.listen(ChildAdded, l)
}

func (r *MemoryReference) OnChildChanged(l Listener) Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listen(ChildChanged, l)
}

func (r *MemoryReference) OnChildRemoved(l Listener) Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listen(ChildRemoved, l)
}

func (r *MemoryReference) OnChildMoved(l Listener) Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listen(ChildMoved, l)
}

// LoadInitialData returns the error set by FailInitialLoad, if any. Existing
// children have already been delivered by OnChildAdded.
func (r *MemoryReference) LoadInitialData(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadErr
}

func (r *MemoryReference) FailInitialLoad(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadErr = err
}

// Set adds the child or changes its value.
func (r *MemoryReference) Set(key string, value interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := ChildChanged
	if _, found := r.children[key]; !found {
		t = ChildAdded
	}
	r.children[key] = value
	r.notify(ChildEvent{Type: t, Key: key, Value: value})
}

// Push adds a child under a new time ordered key and returns the key.
func (r *MemoryReference) Push(value interface{}) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), r.entropy)
	if err != nil {
		return "", err
	}
	key := id.String()
	r.children[key] = value
	r.notify(ChildEvent{Type: ChildAdded, Key: key, Value: value})
	return key, nil
}

func (r *MemoryReference) Remove(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	value, found := r.children[key]
	if !found {
		return false
	}
	delete(r.children, key)
	r.notify(ChildEvent{Type: ChildRemoved, Key: key, Value: value})
	return true
}

// Move reports a change of the source side position of key. Neither the key
// nor its value change.
func (r *MemoryReference) Move(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	value, found := r.children[key]
	if !found {
		return false
	}
	r.notify(ChildEvent{Type: ChildMoved, Key: key, Value: value})
	return true
}

// Fail delivers err to the child added listeners as a stream failure.
func (r *MemoryReference) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[ChildAdded].Range(func(_ uint64, l Listener) bool {
		l(ChildEvent{Type: ChildAdded, Error: err})
		return true
	})
}

func (r *MemoryReference) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.children)
}

// Listeners returns the number of active subscriptions for t.
func (r *MemoryReference) Listeners(t EventType) int {
	return r.listeners[t].Size()
}

func (r *MemoryReference) listen(t EventType, l Listener) Subscription {
	id := r.nextID.Add(1)
	r.listeners[t].Store(id, l)
	return &memorySubscription{listeners: r.listeners[t], id: id}
}

func (r *MemoryReference) notify(e ChildEvent) {
	r.listeners[e.Type].Range(func(_ uint64, l Listener) bool {
		l(e)
		return true
	})
}

type memorySubscription struct {
	listeners *xsync.MapOf[uint64, Listener]
	id        uint64
}

func (s *memorySubscription) Cancel() error {
	s.listeners.Delete(s.id)
	return nil
}
