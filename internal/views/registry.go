package views

import (
	"errors"
	"sync"

	"github.com/samber/lo"

	"github.com/goliatone/go-mapblocks/internal/logging"
	"github.com/goliatone/go-mapblocks/pkg/interfaces"
)

// ErrMarkerNotFound is returned when a mutation targets an unknown marker id.
var ErrMarkerNotFound = errors.New("views: marker not found")

// Subscriber receives every message published for a map, once.
type Subscriber func(Message)

// Registry tracks the open views of every map and relays marker mutations
// between views sharing a map id.
type Registry struct {
	mu          sync.RWMutex
	views       map[string][]*View
	subscribers map[int]Subscriber
	nextSub     int
	logger      interfaces.Logger
}

// RegistryOption configures a registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used for relay diagnostics.
func WithRegistryLogger(logger interfaces.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		views:       map[string][]*View{},
		subscribers: map[int]Subscriber{},
		logger:      logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register adds v to its map and routes its messages through the registry.
func (r *Registry) Register(v *View) {
	if v == nil {
		return
	}
	v.mu.Lock()
	v.publish = func(msg Message) { r.Broadcast(v, msg) }
	v.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.views[v.mapID] {
		if existing == v {
			return
		}
	}
	r.views[v.mapID] = append(r.views[v.mapID], v)
	r.logger.Debug("views.registered", "map_id", v.mapID, "view", v.handle, "open", len(r.views[v.mapID]))
}

// Unregister removes v. The map entry is dropped with its last view.
func (r *Registry) Unregister(v *View) {
	if v == nil {
		return
	}
	v.mu.Lock()
	v.publish = nil
	v.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	remaining := lo.Filter(r.views[v.mapID], func(item *View, _ int) bool { return item != v })
	if len(remaining) == 0 {
		delete(r.views, v.mapID)
		return
	}
	r.views[v.mapID] = remaining
}

// Views lists the open views of mapID in registration order.
func (r *Registry) Views(mapID string) []*View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*View(nil), r.views[mapID]...)
}

// MapIDs lists every map with at least one open view.
func (r *Registry) MapIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.views)
}

// ViewsForDocument lists the views rendered from document path.
func (r *Registry) ViewsForDocument(path string) []*View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*View
	for _, list := range r.views {
		for _, v := range list {
			if v.document == path {
				out = append(out, v)
			}
		}
	}
	return out
}

// Subscribe registers fn for every published message and returns a function
// that removes it.
func (r *Registry) Subscribe(fn Subscriber) func() {
	if fn == nil {
		return func() {}
	}
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subscribers[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subscribers, id)
		r.mu.Unlock()
	}
}

// Broadcast replays msg on every other view of the same map and hands it to
// the subscribers. Relayed applications do not emit again.
func (r *Registry) Broadcast(origin *View, msg Message) {
	if msg == nil {
		return
	}
	r.mu.RLock()
	targets := lo.Filter(r.views[msg.Map()], func(item *View, _ int) bool { return item != origin })
	subscribers := lo.Values(r.subscribers)
	r.mu.RUnlock()

	for _, v := range targets {
		v.Apply(msg)
	}
	for _, fn := range subscribers {
		fn(msg)
	}
	r.logger.Trace("views.broadcast", "map_id", msg.Map(), "marker_id", msg.Marker(), "targets", len(targets))
}
