package apollo

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/shima-park/knuffimap"
)

var (
	_ knuffimap.Reference = (*Reference)(nil)

	ErrNamespaceNotFound = errors.New("namespace not found")
)

// PollError reports a failed long poll or reload. Polling carries on after
// it, so it is informational.
type PollError struct {
	ConfigServerURL string
	AppID           string
	Cluster         string
	Namespace       string
	Err             error
}

func (e *PollError) Error() string {
	return e.Namespace + ": " + e.Err.Error()
}

func (e *PollError) Unwrap() error {
	return e.Err
}

// Reference exposes one Apollo namespace as a knuffimap.Reference. Its
// children are the keys of the namespace, or the top level keys of the
// document of a json or yaml namespace. Each release is diffed against the
// previous one into child events.
type Reference struct {
	opts       Options
	namespace  string
	configType string

	listeners map[knuffimap.EventType]*xsync.MapOf[uint64, knuffimap.Listener]
	nextID    atomic.Uint64

	// mu serializes reloads with listener registration so listeners see
	// every release exactly once and in order.
	mu             sync.Mutex
	children       Configurations
	releaseKey     string
	notificationID int
	loaded         bool

	errorsCh chan *PollError

	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
	wg        sync.WaitGroup
}

func NewReference(configServerURL, appID, namespace string, opts ...Option) (*Reference, error) {
	options, err := newOptions(configServerURL, appID, opts...)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Reference{
		opts:           options,
		namespace:      namespace,
		configType:     ConfigType(namespace),
		listeners:      make(map[knuffimap.EventType]*xsync.MapOf[uint64, knuffimap.Listener]),
		children:       Configurations{},
		notificationID: defaultNotificationID,
		errorsCh:       make(chan *PollError, defaultErrorsChanSize),
		ctx:            ctx,
		cancel:         cancel,
	}
	for _, t := range []knuffimap.EventType{knuffimap.ChildAdded, knuffimap.ChildChanged, knuffimap.ChildRemoved} {
		r.listeners[t] = xsync.NewMapOf[uint64, knuffimap.Listener]()
	}
	return r, nil
}

func (r *Reference) Namespace() string {
	return r.namespace
}

func (r *Reference) Options() Options {
	return r.opts
}

// OnChildAdded first reports every child already loaded to l.
func (r *Reference) OnChildAdded(l knuffimap.Listener) knuffimap.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.children))
	for k := range r.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		l(knuffimap.ChildEvent{Type: knuffimap.ChildAdded, Key: k, Value: r.children[k]})
	}
	return r.listen(knuffimap.ChildAdded, l)
}

func (r *Reference) OnChildChanged(l knuffimap.Listener) knuffimap.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listen(knuffimap.ChildChanged, l)
}

func (r *Reference) OnChildRemoved(l knuffimap.Listener) knuffimap.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listen(knuffimap.ChildRemoved, l)
}

// LoadInitialData fetches the namespace once and starts long polling for
// later releases. Calls after the first successful one return at once.
func (r *Reference) LoadInitialData(ctx context.Context) error {
	r.mu.Lock()
	if r.loaded {
		r.mu.Unlock()
		return nil
	}

	status, err := r.reload(ctx)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if status != http.StatusOK {
		r.mu.Unlock()
		return errors.Wrapf(ErrNamespaceNotFound, "%s (status %d)", r.namespace, status)
	}
	r.loaded = true
	r.mu.Unlock()

	r.initNotificationID(ctx)
	r.start()
	return nil
}

// Errors reports poll failures. Errors are dropped when nobody reads them.
func (r *Reference) Errors() <-chan *PollError {
	return r.errorsCh
}

// Close stops polling. Subscriptions stay registered but see no more events.
func (r *Reference) Close() error {
	r.cancel()
	r.wg.Wait()
	r.opts.Balancer.Stop()
	return nil
}

func (r *Reference) listen(t knuffimap.EventType, l knuffimap.Listener) knuffimap.Subscription {
	id := r.nextID.Add(1)
	r.listeners[t].Store(id, l)
	return &subscription{listeners: r.listeners[t], id: id}
}

func (r *Reference) notify(e knuffimap.ChildEvent) {
	r.listeners[e.Type].Range(func(_ uint64, l knuffimap.Listener) bool {
		l(e)
		return true
	})
}

// reload reads the namespace and reports the difference to the listeners.
// It must be called with mu held.
func (r *Reference) reload(ctx context.Context) (int, error) {
	configServerURL, err := r.opts.Balancer.Select()
	if err != nil {
		r.log("Action", "BalancerSelect", "Error", err)
		return 0, err
	}

	status, config, err := r.opts.Client.GetConfigs(ctx, configServerURL,
		r.opts.AppID, r.opts.Cluster, r.namespace, r.releaseKey)
	if err != nil {
		r.log("ConfigServerUrl", configServerURL, "Action", "GetConfigs",
			"ServerResponseStatus", status, "Error", err)
		return status, err
	}
	if status != http.StatusOK {
		return status, nil
	}

	next, err := children(r.configType, config.Configurations)
	if err != nil {
		return status, err
	}

	events := r.children.Different(next)
	r.children = next
	r.releaseKey = config.ReleaseKey
	for _, e := range events {
		r.notify(e)
	}
	r.log("Action", "Reload", "ReleaseKey", config.ReleaseKey, "Changes", len(events))
	return status, nil
}

// initNotificationID asks for the current notification id so the first
// long poll does not return at once. Failures leave the default id, which
// only costs one extra reload.
func (r *Reference) initNotificationID(ctx context.Context) {
	configServerURL, err := r.opts.Balancer.Select()
	if err != nil {
		return
	}
	_, notifications, err := r.opts.Client.Notifications(ctx, configServerURL,
		r.opts.AppID, r.opts.Cluster, []Notification{{
			NamespaceName:  r.namespace,
			NotificationID: defaultNotificationID,
		}})
	if err != nil {
		return
	}
	r.applyNotificationIDs(notifications)
}

func (r *Reference) applyNotificationIDs(notifications []Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range notifications {
		if sameNamespace(n.NamespaceName, r.namespace) {
			r.notificationID = n.NotificationID
		}
	}
}

func (r *Reference) start() {
	r.startOnce.Do(func() {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()

			timer := time.NewTimer(r.opts.PollInterval)
			defer timer.Stop()

			for {
				select {
				case <-timer.C:
					r.poll()
					timer.Reset(r.opts.PollInterval)
				case <-r.ctx.Done():
					return
				}
			}
		}()
	})
}

func (r *Reference) poll() {
	configServerURL, err := r.opts.Balancer.Select()
	if err != nil {
		r.sendError("", err)
		return
	}

	r.mu.Lock()
	local := []Notification{{NamespaceName: r.namespace, NotificationID: r.notificationID}}
	r.mu.Unlock()

	// 200 lists the namespaces with a newer notification id, 304 returns an
	// empty list.
	_, notifications, err := r.opts.Client.Notifications(r.ctx, configServerURL,
		r.opts.AppID, r.opts.Cluster, local)
	if err != nil {
		if r.ctx.Err() == nil {
			r.log("ConfigServerUrl", configServerURL, "Notifications", Notifications(local),
				"Action", "LongPoll", "Error", err)
			r.sendError(configServerURL, err)
		}
		return
	}

	for _, n := range notifications {
		if !sameNamespace(n.NamespaceName, r.namespace) {
			continue
		}

		r.mu.Lock()
		status, err := r.reload(r.ctx)
		if err == nil && status == http.StatusOK {
			// only move on once the release was applied, otherwise the
			// next poll would not report it again.
			r.notificationID = n.NotificationID
		}
		r.mu.Unlock()

		if err != nil {
			r.sendError(configServerURL, err)
		}
	}
}

func (r *Reference) sendError(configServerURL string, err error) {
	select {
	case r.errorsCh <- &PollError{
		ConfigServerURL: configServerURL,
		AppID:           r.opts.AppID,
		Cluster:         r.opts.Cluster,
		Namespace:       r.namespace,
		Err:             err,
	}:
	default:
	}
}

func (r *Reference) log(kvs ...interface{}) {
	r.opts.Logger.Log(
		append([]interface{}{
			"[Apollo]", "",
			"AppID", r.opts.AppID,
			"Cluster", r.opts.Cluster,
			"Namespace", r.namespace,
		},
			kvs...,
		)...,
	)
}

type subscription struct {
	listeners *xsync.MapOf[uint64, knuffimap.Listener]
	id        uint64
}

func (s *subscription) Cancel() error {
	s.listeners.Delete(s.id)
	return nil
}
