package store

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Field length limits enforced by Validate.
const (
	// MaxBoardNameLength is the maximum number of characters in a board name.
	MaxBoardNameLength = 50

	// MaxTaskTextLength is the maximum number of characters in a task's text.
	MaxTaskTextLength = 200
)

// DefaultBoardColor is used by NewBoard when no colour is supplied.
const DefaultBoardColor = "#4a90d9"

// Status is the lifecycle state of a task on a board.
type Status string

const (
	// StatusTodo marks a task that has not been started
	StatusTodo Status = "todo"

	// StatusDoing marks a task that is in progress
	StatusDoing Status = "doing"

	// StatusDone marks a completed task
	StatusDone Status = "done"
)

// Validate checks if the Status is a valid enum value.
func (st Status) Validate() error {
	switch st {
	case StatusTodo, StatusDoing, StatusDone:
		return nil
	default:
		return fmt.Errorf("unknown task status: %q", st)
	}
}

// Task is a unit of work with a lifecycle status. Tasks are value objects:
// every update returns a new Task with a fresh LastModified, so history
// snapshots can never alias a live task.
type Task struct {
	ID            string     `json:"id"`                      // Unique within the owning board
	Text          string     `json:"text"`                    // 1-200 characters
	Status        Status     `json:"status"`                  // todo, doing or done
	CreatedDate   time.Time  `json:"createdDate"`             // When the task was created
	CompletedDate *time.Time `json:"completedDate,omitempty"` // Set when status becomes done
	LastModified  time.Time  `json:"lastModified"`            // Updated on every change
	Archived      bool       `json:"archived"`                // True when moved off the active list
	ArchivedDate  *time.Time `json:"archivedDate,omitempty"`  // Set when the task is archived
}

// NewTask creates a task with a generated ID, status todo and current timestamps.
func NewTask(text string) Task {
	now := time.Now().UTC()
	return Task{
		ID:           uuid.New().String(),
		Text:         text,
		Status:       StatusTodo,
		CreatedDate:  now,
		LastModified: now,
	}
}

// Validate checks if the Task has valid field values.
func (t Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}

	if n := utf8.RuneCountInString(t.Text); n < 1 || n > MaxTaskTextLength {
		return fmt.Errorf("task text must be 1-%d characters, got %d", MaxTaskTextLength, n)
	}

	if err := t.Status.Validate(); err != nil {
		return fmt.Errorf("invalid task status: %w", err)
	}

	return nil
}

// WithText returns a copy of the task with new text and a fresh LastModified.
func (t Task) WithText(text string) Task {
	t.Text = text
	t.LastModified = time.Now().UTC()
	return t
}

// WithStatus returns a copy of the task in the given status.
// Moving into done records CompletedDate; moving out of done clears it.
func (t Task) WithStatus(st Status) Task {
	now := time.Now().UTC()
	t.Status = st
	t.LastModified = now
	if st == StatusDone {
		t.CompletedDate = &now
	} else {
		t.CompletedDate = nil
	}
	return t
}

// Archive returns a copy of the task marked archived with an ArchivedDate.
func (t Task) Archive() Task {
	now := time.Now().UTC()
	t.Archived = true
	t.ArchivedDate = &now
	t.LastModified = now
	return t
}

// Restore returns a copy of the task with the archive marker removed.
func (t Task) Restore() Task {
	t.Archived = false
	t.ArchivedDate = nil
	t.LastModified = time.Now().UTC()
	return t
}

// Board is a named collection of tasks representing one workspace.
// Boards are value objects: task-level mutations replace the Tasks slice
// wholesale and produce a new board with a fresh LastModified. Boards are
// never mutated field-by-field in place.
type Board struct {
	ID            string    `json:"id"`                    // Unique across the store
	Name          string    `json:"name"`                  // 1-50 characters
	Description   string    `json:"description,omitempty"` // Optional free text
	Color         string    `json:"color"`                 // Display colour for the UI layer
	IsDefault     bool      `json:"isDefault"`             // At most one board carries this; protected from removal
	IsArchived    bool      `json:"isArchived"`            // Archived boards are hidden from the active list
	CreatedDate   time.Time `json:"createdDate"`           // When the board was created
	LastModified  time.Time `json:"lastModified"`          // Updated on every change
	Tasks         []Task    `json:"tasks"`                 // Active tasks, replaced wholesale on mutation
	ArchivedTasks []Task    `json:"archivedTasks"`         // Tasks moved off the active list
}

// NewBoard creates a board with a generated ID and current timestamps.
// An empty color falls back to DefaultBoardColor.
func NewBoard(name, description, color string) Board {
	if color == "" {
		color = DefaultBoardColor
	}
	now := time.Now().UTC()
	return Board{
		ID:            uuid.New().String(),
		Name:          name,
		Description:   description,
		Color:         color,
		CreatedDate:   now,
		LastModified:  now,
		Tasks:         []Task{},
		ArchivedTasks: []Task{},
	}
}

// Validate checks if the Board has valid field values, including that
// every task is valid and task IDs are unique within the board.
func (b Board) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("board ID cannot be empty")
	}

	if n := utf8.RuneCountInString(b.Name); n < 1 || n > MaxBoardNameLength {
		return fmt.Errorf("board name must be 1-%d characters, got %d", MaxBoardNameLength, n)
	}

	seen := make(map[string]bool, len(b.Tasks)+len(b.ArchivedTasks))
	for i, t := range b.Tasks {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("invalid task at index %d: %w", i, err)
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate task ID %q on board %q", t.ID, b.ID)
		}
		seen[t.ID] = true
	}
	for i, t := range b.ArchivedTasks {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("invalid archived task at index %d: %w", i, err)
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate task ID %q on board %q", t.ID, b.ID)
		}
		seen[t.ID] = true
	}

	return nil
}

// Clone returns a deep copy of the board. Task values contain no reference
// fields beyond the CompletedDate/ArchivedDate pointers, which are never
// mutated in place, so copying the slices is sufficient.
func (b Board) Clone() Board {
	b.Tasks = cloneTasks(b.Tasks)
	b.ArchivedTasks = cloneTasks(b.ArchivedTasks)
	return b
}

// WithTasks returns a copy of the board with the active task list replaced
// wholesale and a fresh LastModified.
func (b Board) WithTasks(tasks []Task) Board {
	b.Tasks = cloneTasks(tasks)
	b.LastModified = time.Now().UTC()
	return b
}

// BoardPatch describes a partial board update. Nil fields are left unchanged.
type BoardPatch struct {
	Name          *string
	Description   *string
	Color         *string
	IsDefault     *bool
	IsArchived    *bool
	Tasks         *[]Task
	ArchivedTasks *[]Task
}

// Merge returns a new board with the patch applied and a fresh LastModified.
func (b Board) Merge(p BoardPatch) Board {
	next := b.Clone()
	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Color != nil {
		next.Color = *p.Color
	}
	if p.IsDefault != nil {
		next.IsDefault = *p.IsDefault
	}
	if p.IsArchived != nil {
		next.IsArchived = *p.IsArchived
	}
	if p.Tasks != nil {
		next.Tasks = cloneTasks(*p.Tasks)
	}
	if p.ArchivedTasks != nil {
		next.ArchivedTasks = cloneTasks(*p.ArchivedTasks)
	}
	next.LastModified = time.Now().UTC()
	return next
}

func cloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}

func cloneBoards(boards []Board) []Board {
	out := make([]Board, len(boards))
	for i, b := range boards {
		out[i] = b.Clone()
	}
	return out
}
