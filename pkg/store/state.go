package store

// Key identifies one field of the store's canonical state. Subscribers
// register against a key and are notified whenever that field's value changes.
type Key string

const (
	// KeyBoards is the full board collection
	KeyBoards Key = "boards"

	// KeyCurrentBoardID is the ID of the selected board ("" when none)
	KeyCurrentBoardID Key = "currentBoardId"

	// KeyTasks is the derived task list of the selected board.
	// It is a pure projection and can never be written by a caller.
	KeyTasks Key = "tasks"

	// KeyFilter is the UI task filter
	KeyFilter Key = "filter"
)

// DefaultFilter is the filter value of a freshly constructed store.
const DefaultFilter = "all"

// Patch is a partial state update handed to Apply/Set. Only KeyBoards,
// KeyCurrentBoardID and KeyFilter are writable.
type Patch map[Key]any

// State is the canonical state object owned by the store. External readers
// receive copies; external writes go through the store's operations.
type State struct {
	Boards         []Board `json:"boards"`
	CurrentBoardID string  `json:"currentBoardId"`
	Tasks          []Task  `json:"tasks"` // derived from Boards + CurrentBoardID
	Filter         string  `json:"filter"`
}

func initialState() State {
	return State{
		Boards:         []Board{},
		CurrentBoardID: "",
		Tasks:          []Task{},
		Filter:         DefaultFilter,
	}
}

// Clone returns a deep copy of the state, safe to keep as a history snapshot.
func (s State) Clone() State {
	s.Boards = cloneBoards(s.Boards)
	s.Tasks = cloneTasks(s.Tasks)
	return s
}

// valueOf returns the state's value for a key. Unknown keys return nil.
func (s State) valueOf(key Key) any {
	switch key {
	case KeyBoards:
		return s.Boards
	case KeyCurrentBoardID:
		return s.CurrentBoardID
	case KeyTasks:
		return s.Tasks
	case KeyFilter:
		return s.Filter
	default:
		return nil
	}
}

// deriveTasks is the pure projection behind the derived KeyTasks field:
// the selected board's active tasks, or an empty list when no board is
// selected. The result is a copy so callers cannot reach into board state.
func deriveTasks(boards []Board, currentBoardID string) []Task {
	if currentBoardID == "" {
		return []Task{}
	}
	for _, b := range boards {
		if b.ID == currentBoardID {
			return cloneTasks(b.Tasks)
		}
	}
	return []Task{}
}
