package store

import (
	"log"
	"reflect"
)

// Options controls how Apply records and announces a mutation.
type Options struct {
	// AddToHistory pushes a snapshot of the resulting state onto the undo
	// timeline. Loading persisted state should leave this false so the
	// first user-initiated mutation becomes the first history entry.
	AddToHistory bool

	// Silent suppresses per-field subscriber notifications and the
	// state:changed bus event for this mutation.
	Silent bool
}

// Store is the reactive state store at the centre of the application. It
// owns the canonical state, derives the current task list from the board
// collection and the selected board, keeps a bounded linear undo/redo
// timeline, and notifies per-field subscribers synchronously.
//
// The store is designed for single-goroutine ownership (an event loop or a
// request handler holding an external lock): notification is synchronous and
// a subscriber may re-enter the store, which a lock could not allow. Nested
// mutations resolve after the outer one and record their own history entry.
type Store struct {
	state   State
	history *history
	subs    *registry
	bus     *Bus
	logger  *log.Logger
}

// Config carries store construction parameters. The zero value is usable:
// history capacity defaults to DefaultMaxHistorySize and logging to the
// process-wide default logger.
type Config struct {
	MaxHistorySize int
	Logger         *log.Logger
}

// New creates an empty store: no boards, no selection, empty history.
func New(cfg Config) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Store{
		state:   initialState(),
		history: newHistory(cfg.MaxHistorySize),
		subs:    newRegistry(logger),
		bus:     newBus(logger),
		logger:  logger,
	}
}

// Bus returns the store's notification bus for coarse-grained collaborators.
func (s *Store) Bus() *Bus {
	return s.bus
}

// Get returns the current value for a key. Slice-valued keys are returned
// as copies so callers cannot mutate store internals. Unknown keys return nil.
func (s *Store) Get(key Key) any {
	switch key {
	case KeyBoards:
		return cloneBoards(s.state.Boards)
	case KeyTasks:
		return cloneTasks(s.state.Tasks)
	default:
		return s.state.valueOf(key)
	}
}

// GetState returns a defensive copy of the full state object.
func (s *Store) GetState() State {
	return s.state.Clone()
}

// Subscribe registers a callback for changes to one state field and returns
// an unsubscribe function that removes exactly that registration.
func (s *Store) Subscribe(key Key, fn SubscriberFunc) func() {
	return s.subs.add(key, fn)
}

// Set applies a partial state update with history recording and
// notifications enabled. Shorthand for Apply with default options.
func (s *Store) Set(patch Patch) {
	s.Apply(patch, Options{AddToHistory: true})
}

// writableKeys fixes the merge and notification order across mutations.
var writableKeys = []Key{KeyBoards, KeyCurrentBoardID, KeyFilter}

// Apply merges a partial update into the canonical state.
//
// Within the single call, atomically: provided keys are merged, the derived
// tasks view is recomputed when the board collection or the selection
// changed, a history snapshot is pushed (unless suppressed), and subscribers
// of every changed key are invoked synchronously with (new, old) in
// registration order. A nil or empty patch, an unknown key, the derived
// KeyTasks and a value of the wrong type are each logged no-ops - Apply
// never fails. Subscriber panics are caught; the applied mutation is not
// rolled back and later subscribers still run.
func (s *Store) Apply(patch Patch, opts Options) {
	if len(patch) == 0 {
		s.logger.Printf("store: ignoring empty state update")
		return
	}

	old := s.state
	next := s.state
	structural := false

	for key, value := range patch {
		switch key {
		case KeyBoards:
			boards, ok := value.([]Board)
			if !ok {
				s.logger.Printf("store: ignoring %q update: expected []Board, got %T", key, value)
				continue
			}
			next.Boards = cloneBoards(boards)
			structural = true
		case KeyCurrentBoardID:
			id, ok := value.(string)
			if !ok {
				s.logger.Printf("store: ignoring %q update: expected string, got %T", key, value)
				continue
			}
			next.CurrentBoardID = id
			structural = true
		case KeyFilter:
			filter, ok := value.(string)
			if !ok {
				s.logger.Printf("store: ignoring %q update: expected string, got %T", key, value)
				continue
			}
			next.Filter = filter
		case KeyTasks:
			s.logger.Printf("store: ignoring %q update: derived field is not writable", key)
		default:
			s.logger.Printf("store: ignoring unknown state key %q", key)
		}
	}

	// Recompute the derived view in the same atomic update. This never
	// produces its own history entry or notification pass; it diffs like
	// any other key below.
	if structural {
		next.Tasks = deriveTasks(next.Boards, next.CurrentBoardID)
	}

	changed := diffStates(old, next)

	s.state = next

	if opts.AddToHistory {
		s.history.push(next.Clone())
	}

	if opts.Silent || len(changed) == 0 {
		return
	}

	payload := make(map[Key]any, len(changed))
	for _, key := range changed {
		payload[key] = next.valueOf(key)
	}

	// Notifications run last so a re-entrant Apply from a subscriber lands
	// after this mutation's history entry.
	for _, key := range changed {
		s.subs.notify(key, next.valueOf(key), old.valueOf(key))
	}

	s.bus.publish(Event{Type: EventStateChanged, Payload: payload})
}

// allKeys is the diff/notification order for whole-state replacement.
var allKeys = []Key{KeyBoards, KeyCurrentBoardID, KeyTasks, KeyFilter}

// diffStates returns the keys whose values differ between two states, in
// fixed notification order. Comparison is by value, so a wholesale-replaced
// slice with identical contents does not count as a change.
func diffStates(old, next State) []Key {
	var changed []Key
	for _, key := range allKeys {
		if !reflect.DeepEqual(old.valueOf(key), next.valueOf(key)) {
			changed = append(changed, key)
		}
	}
	return changed
}

// CanUndo reports whether an earlier history snapshot can be restored.
func (s *Store) CanUndo() bool {
	return s.history.canUndo()
}

// CanRedo reports whether a later history snapshot can be restored.
func (s *Store) CanRedo() bool {
	return s.history.canRedo()
}

// HistoryLength returns the number of snapshots on the undo timeline.
func (s *Store) HistoryLength() int {
	return s.history.size()
}

// HistoryPosition returns the current history pointer, -1 when empty.
func (s *Store) HistoryPosition() int {
	return s.history.position()
}

// Undo moves the history pointer back one snapshot and restores it as the
// live state, notifying subscribers of every key whose value differs from
// the previous live state. Publishes state:undo. Returns false at the
// history boundary.
func (s *Store) Undo() bool {
	snap, ok := s.history.undo()
	if !ok {
		return false
	}
	s.restore(snap, EventStateUndo)
	return true
}

// Redo moves the history pointer forward one snapshot and restores it,
// mirroring Undo. Publishes state:redo. Returns false at the boundary.
func (s *Store) Redo() bool {
	snap, ok := s.history.redo()
	if !ok {
		return false
	}
	s.restore(snap, EventStateRedo)
	return true
}

// restore replaces the entire live state with a history snapshot and fires
// per-field notifications for every key that differs, plus the distinct
// time-travel bus event.
func (s *Store) restore(snap State, evt EventType) {
	old := s.state
	next := snap.Clone()
	changed := diffStates(old, next)

	s.state = next

	for _, key := range changed {
		s.subs.notify(key, next.valueOf(key), old.valueOf(key))
	}

	s.bus.publish(Event{Type: evt, Payload: next.Clone()})
}

// Reset discards all boards, tasks, history and field subscriptions,
// returning the store to its initial state as if newly constructed.
// Bus subscriptions survive so collaborators can observe the state:reset
// event itself.
func (s *Store) Reset() {
	s.state = initialState()
	s.history.reset()
	s.subs.clear()
	s.bus.publish(Event{Type: EventStateReset})
}
