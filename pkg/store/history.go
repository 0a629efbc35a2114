package store

// DefaultMaxHistorySize bounds the undo/redo timeline when no explicit
// capacity is configured.
const DefaultMaxHistorySize = 50

// history is a bounded, linear undo/redo timeline of full-state snapshots.
//
// The timeline has two modes. At the tip (index == len-1) a push simply
// appends. Mid-history (index < len-1, i.e. after one or more undos) a push
// first truncates the abandoned redo branch - this is a linear model, the
// discarded branch is gone. When a push would exceed the capacity the oldest
// snapshot is evicted and the index shifts down so it keeps pointing at the
// same logical entry.
type history struct {
	snapshots []State
	index     int
	max       int
}

func newHistory(max int) *history {
	if max < 1 {
		max = DefaultMaxHistorySize
	}
	return &history{
		snapshots: []State{},
		index:     -1,
		max:       max,
	}
}

// push records a snapshot as the new tip of the timeline.
func (h *history) push(s State) {
	// Truncate the redo branch when writing mid-history.
	if h.index < len(h.snapshots)-1 {
		h.snapshots = h.snapshots[:h.index+1]
	}

	h.snapshots = append(h.snapshots, s)
	h.index++

	// Evict the oldest entry when over capacity.
	if len(h.snapshots) > h.max {
		evicted := make([]State, len(h.snapshots)-1)
		copy(evicted, h.snapshots[1:])
		h.snapshots = evicted
		h.index--
	}
}

// canUndo reports whether there is an earlier snapshot to restore.
func (h *history) canUndo() bool {
	return h.index > 0
}

// canRedo reports whether the pointer sits behind the tip.
func (h *history) canRedo() bool {
	return h.index < len(h.snapshots)-1
}

// undo moves the pointer back one entry and returns the snapshot to restore.
// Returns ok=false at the boundary without moving the pointer.
func (h *history) undo() (State, bool) {
	if !h.canUndo() {
		return State{}, false
	}
	h.index--
	return h.snapshots[h.index], true
}

// redo moves the pointer forward one entry and returns the snapshot to
// restore. Returns ok=false at the boundary without moving the pointer.
func (h *history) redo() (State, bool) {
	if !h.canRedo() {
		return State{}, false
	}
	h.index++
	return h.snapshots[h.index], true
}

// reset discards the whole timeline.
func (h *history) reset() {
	h.snapshots = []State{}
	h.index = -1
}

// size returns the number of recorded snapshots.
func (h *history) size() int {
	return len(h.snapshots)
}

// position returns the current pointer, -1 when the timeline is empty.
func (h *history) position() int {
	return h.index
}
