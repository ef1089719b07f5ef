package knuffimap

import "context"

type EventType string

const (
	ChildAdded   EventType = "child_added"
	ChildChanged EventType = "child_changed"
	ChildRemoved EventType = "child_removed"
	ChildMoved   EventType = "child_moved"
)

// ChildEvent reports a change of a single child of a Reference. A non-nil
// Error means the stream failed and carries no child.
type ChildEvent struct {
	Type  EventType
	Key   string
	Value interface{}
	Error error
}

type Listener func(ChildEvent)

type Subscription interface {
	Cancel() error
}

// Reference is an observable keyed collection living at a data source.
//
// Implementations must invoke the listeners of one Reference serially, in
// the order the changes happened at the source.
type Reference interface {
	OnChildAdded(l Listener) Subscription
	OnChildChanged(l Listener) Subscription
	OnChildRemoved(l Listener) Subscription

	// LoadInitialData returns once every child that existed when it was
	// called has been delivered to the child added listeners.
	LoadInitialData(ctx context.Context) error
}

// Deserializer turns the raw value of a child into T.
type Deserializer[T any] func(raw interface{}) (T, error)
