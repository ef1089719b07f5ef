package knuffimap

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

type adapterState int

const (
	stateCreated adapterState = iota
	stateOpen
	stateClosed
)

// envelope is an entry of the event queue. A settle envelope carries no
// event and marks the end of the initial data. The reducer answers it with
// the error that ended the stream, if any.
type envelope struct {
	event  ChildEvent
	settle chan error
}

// MapAdapter keeps a KnuffiMap in sync with the children of a Reference and
// republishes it after every change.
type MapAdapter[T any] struct {
	opts        Options
	ref         Reference
	deserialize Deserializer[T]
	compare     Comparator[T]
	out         *broadcaster[T]

	mu     sync.Mutex
	state  adapterState
	m      *KnuffiMap[T]
	subs   []Subscription
	events *queue[envelope]
	done   chan struct{}
}

// NewMapAdapter returns an adapter that does nothing until Open is called.
func NewMapAdapter[T any](ref Reference, deserialize Deserializer[T], compare Comparator[T], opts ...Option) *MapAdapter[T] {
	return &MapAdapter[T]{
		opts:        newOptions(opts...),
		ref:         ref,
		deserialize: deserialize,
		compare:     compare,
		out:         newBroadcaster[T](),
	}
}

// Open subscribes to the reference and waits for its initial data. The first
// map published afterwards holds every initial child. If the initial data
// could not be applied Open returns the error that ended the stream. An
// adapter can only be opened once.
func (a *MapAdapter[T]) Open(ctx context.Context) error {
	a.mu.Lock()
	switch a.state {
	case stateOpen:
		a.mu.Unlock()
		return ErrAdapterOpened
	case stateClosed:
		a.mu.Unlock()
		return ErrAdapterClosed
	}
	a.state = stateOpen

	m := newKnuffiMap(a.compare)
	events := newQueue[envelope]()
	done := make(chan struct{})
	a.m, a.events, a.done = m, events, done

	go a.reduce(m, events, done)

	enqueue := func(e ChildEvent) {
		events.push(envelope{event: e})
	}
	a.subs = []Subscription{
		a.ref.OnChildAdded(enqueue),
		a.ref.OnChildChanged(enqueue),
		a.ref.OnChildRemoved(enqueue),
	}
	a.mu.Unlock()

	a.log("Action", "Open")

	if err := a.ref.LoadInitialData(ctx); err != nil {
		err = errors.Wrap(err, "load initial data")
		events.push(envelope{event: ChildEvent{Error: err}})
		return err
	}

	settled := make(chan error, 1)
	if !events.push(envelope{settle: settled}) {
		return ErrAdapterClosed
	}
	select {
	case err := <-settled:
		return err
	case <-done:
		return ErrAdapterClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels the subscriptions, ends every observer stream and releases
// the map. Calling Close more than once is a no-op.
func (a *MapAdapter[T]) Close() error {
	a.mu.Lock()
	if a.state == stateClosed {
		a.mu.Unlock()
		return nil
	}
	a.state = stateClosed
	subs, events, done, m := a.subs, a.events, a.done, a.m
	a.subs, a.events, a.m = nil, nil, nil
	a.mu.Unlock()

	var err error
	for _, sub := range subs {
		if sub != nil {
			err = multierr.Append(err, sub.Cancel())
		}
	}

	if events != nil {
		events.close(true)
		<-done
	}
	a.out.end(nil, true)
	if m != nil {
		m.release()
		MapSize.DeleteLabelValues(a.opts.Name)
	}

	a.log("Action", "Close", "Error", err)
	return err
}

// Observe subscribes to the maps published by the adapter. The observer
// first receives the latest published map, if any. Callers must drain
// Updates until it is closed or call Stop, otherwise the observer's
// goroutine stays blocked on an undelivered map even after Close.
func (a *MapAdapter[T]) Observe() *Observer[T] {
	return a.out.subscribe()
}

// Latest returns the most recently published map.
func (a *MapAdapter[T]) Latest() (*KnuffiMap[T], bool) {
	return a.out.last()
}

func (a *MapAdapter[T]) Options() Options {
	return a.opts
}

// reduce is the only writer of m. It applies the queued events one at a
// time and publishes m after each change once the initial data settled.
func (a *MapAdapter[T]) reduce(m *KnuffiMap[T], events *queue[envelope], done chan struct{}) {
	defer close(done)

	var (
		settled bool
		failure error
	)
	for {
		e, ok := events.pop()
		if !ok {
			return
		}

		if e.settle != nil {
			if failure == nil {
				settled = true
				a.publish(m)
			}
			e.settle <- failure
			continue
		}
		if failure != nil {
			continue
		}

		changed, err := a.apply(m, e.event)
		if err != nil {
			failure = err
			a.fail(err)
			continue
		}
		if changed {
			EventsApplied.WithLabelValues(a.opts.Name, string(e.event.Type)).Inc()
			if settled {
				a.publish(m)
			}
		}
	}
}

// apply reduces a single event into m and reports whether m changed.
func (a *MapAdapter[T]) apply(m *KnuffiMap[T], e ChildEvent) (bool, error) {
	if e.Error != nil {
		return false, e.Error
	}

	switch e.Type {
	case ChildAdded, ChildChanged:
		v, err := a.deserialize(e.Value)
		if err != nil {
			return false, errors.Wrapf(err, "deserialize child %q", e.Key)
		}
		if e.Type == ChildAdded {
			return true, m.add(e.Key, v)
		}
		return true, m.update(e.Key, v)
	case ChildRemoved:
		return true, m.remove(e.Key)
	default:
		// ChildMoved included: order is owned by the comparator.
		return false, nil
	}
}

func (a *MapAdapter[T]) publish(m *KnuffiMap[T]) {
	MapSize.WithLabelValues(a.opts.Name).Set(float64(m.Len()))
	Emissions.WithLabelValues(a.opts.Name).Inc()
	if a.opts.ImmutableSnapshots {
		m = m.Clone()
	}
	a.out.publish(m)
}

func (a *MapAdapter[T]) fail(err error) {
	Failures.WithLabelValues(a.opts.Name).Inc()
	a.log("Action", "Reduce", "Error", err)
	a.out.end(err, false)
}

func (a *MapAdapter[T]) log(kvs ...interface{}) {
	a.opts.Logger.Log(
		append([]interface{}{
			"[KnuffiMap]", "",
			"Name", a.opts.Name,
		},
			kvs...,
		)...,
	)
}
