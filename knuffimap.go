package knuffimap

import (
	"slices"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// KnuffiMap is a read-only keyed collection whose keys are kept in ascending
// order of their values, as ranked by the comparator it was created with.
//
// A KnuffiMap handed out by a MapAdapter is a live view: the adapter keeps
// mutating the same instance, so callers should read it when it is emitted
// and not hold on to it to compare against later emissions.
type KnuffiMap[T any] struct {
	mu       sync.RWMutex
	entries  map[string]T
	order    []string
	compare  Comparator[T]
	released bool
}

func newKnuffiMap[T any](compare Comparator[T]) *KnuffiMap[T] {
	return &KnuffiMap[T]{
		entries: make(map[string]T),
		compare: compare,
	}
}

func (m *KnuffiMap[T]) Get(key string) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok
}

// Keys returns the keys in ascending value order. The returned slice is a
// copy owned by the caller.
func (m *KnuffiMap[T]) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.order)
}

func (m *KnuffiMap[T]) Values() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	values := make([]T, len(m.order))
	for i, key := range m.order {
		values[i] = m.entries[key]
	}
	return values
}

func (m *KnuffiMap[T]) ContainsKey(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[key]
	return ok
}

func (m *KnuffiMap[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

func (m *KnuffiMap[T]) IsEmpty() bool {
	return m.Len() == 0
}

func (m *KnuffiMap[T]) IsNotEmpty() bool {
	return m.Len() != 0
}

// IndexOf returns the position of key in the ordered keys, or -1.
func (m *KnuffiMap[T]) IndexOf(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	if !ok {
		return -1
	}
	return m.locate(key, v)
}

func (m *KnuffiMap[T]) First() (string, T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var zero T
	if len(m.order) == 0 {
		return "", zero, false
	}
	key := m.order[0]
	return key, m.entries[key], true
}

func (m *KnuffiMap[T]) Last() (string, T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var zero T
	if len(m.order) == 0 {
		return "", zero, false
	}
	key := m.order[len(m.order)-1]
	return key, m.entries[key], true
}

// ForEach visits every entry in ascending value order. fn must not call back
// into the adapter that owns the map.
func (m *KnuffiMap[T]) ForEach(fn func(key string, value T)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, key := range m.order {
		fn(key, m.entries[key])
	}
}

// Clone returns a structural copy that no longer follows the source map.
func (m *KnuffiMap[T]) Clone() *KnuffiMap[T] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := &KnuffiMap[T]{
		entries: make(map[string]T, len(m.entries)),
		order:   slices.Clone(m.order),
		compare: m.compare,
	}
	for k, v := range m.entries {
		c.entries[k] = v
	}
	return c
}

// add inserts key at its lower bound. A key that is already present is
// repositioned as an update.
func (m *KnuffiMap[T]) add(key string, value T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return ErrMapReleased
	}

	if _, found := m.entries[key]; found {
		return m.updateLocked(key, value)
	}

	i := m.search(value, -1)
	m.entries[key] = value
	m.order = slices.Insert(m.order, i, key)
	return nil
}

func (m *KnuffiMap[T]) update(key string, value T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return ErrMapReleased
	}
	return m.updateLocked(key, value)
}

func (m *KnuffiMap[T]) updateLocked(key string, value T) error {
	old, found := m.entries[key]
	if !found {
		return errors.Wrapf(ErrKeyNotFound, "update %q", key)
	}

	from := m.locate(key, old)
	if from < 0 {
		return errors.Errorf("key %q is missing from the ordered keys", key)
	}
	m.entries[key] = value

	// to is the insertion point once the slot at from is gone, so a move
	// towards the end needs no further adjustment.
	to := m.search(value, from)
	if to == from {
		return nil
	}
	m.order = slices.Delete(m.order, from, from+1)
	m.order = slices.Insert(m.order, to, key)
	return nil
}

func (m *KnuffiMap[T]) remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return ErrMapReleased
	}

	old, found := m.entries[key]
	if !found {
		return errors.Wrapf(ErrKeyNotFound, "remove %q", key)
	}

	// the resident value drives the search, so it has to happen before the
	// entry is deleted.
	i := m.locate(key, old)
	if i < 0 {
		return errors.Errorf("key %q is missing from the ordered keys", key)
	}
	m.order = slices.Delete(m.order, i, i+1)
	delete(m.entries, key)
	return nil
}

func (m *KnuffiMap[T]) release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = true
	m.entries = map[string]T{}
	m.order = nil
}

// search returns the leftmost position at which value can be inserted while
// keeping order sorted. When skip is not negative the key at that position
// is treated as absent and the result is expressed without it.
func (m *KnuffiMap[T]) search(value T, skip int) int {
	n := len(m.order)
	if skip >= 0 {
		n--
	}
	return sort.Search(n, func(i int) bool {
		if skip >= 0 && i >= skip {
			i++
		}
		return m.compare(m.entries[m.order[i]], value) >= 0
	})
}

// locate finds the position of key, whose resident value is value. Equal
// values share a run starting at the lower bound, so the run is scanned for
// the exact key.
func (m *KnuffiMap[T]) locate(key string, value T) int {
	for i := m.search(value, -1); i < len(m.order); i++ {
		if m.order[i] == key {
			return i
		}
		if m.compare(m.entries[m.order[i]], value) != 0 {
			break
		}
	}
	return -1
}
