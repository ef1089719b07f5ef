package knuffimap

import (
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// Observer receives every map published by a MapAdapter, starting with the
// most recent one at the time it subscribed.
type Observer[T any] struct {
	id      uint64
	b       *broadcaster[T]
	pending *queue[*KnuffiMap[T]]
	updates chan *KnuffiMap[T]
	stopCh  chan struct{}
	stop    sync.Once

	mu  sync.Mutex
	err error
}

// Updates is closed when the stream ends, see Err.
func (o *Observer[T]) Updates() <-chan *KnuffiMap[T] {
	return o.updates
}

// Err returns the error that terminated the stream, or nil if it ended
// because the adapter was closed or the observer stopped.
func (o *Observer[T]) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// Stop unsubscribes the observer and closes Updates.
func (o *Observer[T]) Stop() {
	o.stop.Do(func() {
		close(o.stopCh)
		o.pending.close(true)
		o.b.observers.Delete(o.id)
	})
}

func (o *Observer[T]) finish(err error, discard bool) {
	o.mu.Lock()
	o.err = err
	o.mu.Unlock()
	o.pending.close(discard)
}

func (o *Observer[T]) run() {
	defer close(o.updates)
	for {
		m, ok := o.pending.pop()
		if !ok {
			return
		}
		select {
		case o.updates <- m:
		case <-o.stopCh:
			return
		}
	}
}

// broadcaster fans every published map out to its observers and remembers
// the latest one for observers that join later.
type broadcaster[T any] struct {
	mu        sync.Mutex
	observers *xsync.MapOf[uint64, *Observer[T]]
	nextID    atomic.Uint64
	latest    *KnuffiMap[T]
	ended     bool
	err       error
}

func newBroadcaster[T any]() *broadcaster[T] {
	return &broadcaster[T]{
		observers: xsync.NewMapOf[uint64, *Observer[T]](),
	}
}

func (b *broadcaster[T]) subscribe() *Observer[T] {
	o := &Observer[T]{
		id:      b.nextID.Add(1),
		b:       b,
		pending: newQueue[*KnuffiMap[T]](),
		updates: make(chan *KnuffiMap[T]),
		stopCh:  make(chan struct{}),
	}

	b.mu.Lock()
	if b.ended {
		o.finish(b.err, true)
	} else {
		if b.latest != nil {
			o.pending.push(b.latest)
		}
		b.observers.Store(o.id, o)
	}
	b.mu.Unlock()

	go o.run()
	return o
}

func (b *broadcaster[T]) publish(m *KnuffiMap[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ended {
		return
	}
	b.latest = m
	b.observers.Range(func(_ uint64, o *Observer[T]) bool {
		o.pending.push(m)
		return true
	})
}

// end terminates every stream. With discard unset observers still receive
// the maps queued for them before the stream closes.
func (b *broadcaster[T]) end(err error, discard bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ended {
		return
	}
	b.ended = true
	b.err = err
	b.observers.Range(func(id uint64, o *Observer[T]) bool {
		o.finish(err, discard)
		b.observers.Delete(id)
		return true
	})
}

func (b *broadcaster[T]) last() (*KnuffiMap[T], bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest, b.latest != nil
}

func (b *broadcaster[T]) size() int {
	return b.observers.Size()
}
