package store

import "log"

// SubscriberFunc is a per-field change callback. It receives the new and the
// previous value of the field it is registered against.
type SubscriberFunc func(newValue, oldValue any)

// subscription is one registered callback. Identity of the pointer is what
// unsubscribe removes, so two structurally identical callbacks registered
// separately are distinct registrations.
type subscription struct {
	fn SubscriberFunc
}

// registry is the per-field ordered collection of subscribers.
// Callbacks for a key run synchronously in registration order.
type registry struct {
	subs   map[Key][]*subscription
	logger *log.Logger
}

func newRegistry(logger *log.Logger) *registry {
	return &registry{
		subs:   make(map[Key][]*subscription),
		logger: logger,
	}
}

// add registers a callback for a key and returns an unsubscribe function
// that removes exactly this registration. The unsubscribe function is
// idempotent.
func (r *registry) add(key Key, fn SubscriberFunc) func() {
	sub := &subscription{fn: fn}
	r.subs[key] = append(r.subs[key], sub)

	return func() {
		list := r.subs[key]
		for i, s := range list {
			if s == sub {
				r.subs[key] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// notify invokes every subscriber of key with (newValue, oldValue), in
// registration order. A panicking subscriber is caught and logged; it does
// not stop the remaining subscribers and does not propagate to the caller.
// The subscriber list is snapshotted first so re-entrant subscribe or
// unsubscribe calls from inside a callback cannot corrupt the iteration.
func (r *registry) notify(key Key, newValue, oldValue any) {
	list := r.subs[key]
	if len(list) == 0 {
		return
	}

	snapshot := make([]*subscription, len(list))
	copy(snapshot, list)

	for _, sub := range snapshot {
		r.invoke(key, sub, newValue, oldValue)
	}
}

func (r *registry) invoke(key Key, sub *subscription, newValue, oldValue any) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Printf("store: subscriber for %q panicked: %v", key, rec)
		}
	}()
	sub.fn(newValue, oldValue)
}

// clear drops every registration. Used by Reset.
func (r *registry) clear() {
	r.subs = make(map[Key][]*subscription)
}
