package store

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the task operations.
var (
	// ErrBoardNotFound indicates the addressed board does not exist
	ErrBoardNotFound = errors.New("board not found")

	// ErrTaskNotFound indicates the addressed task does not exist on the board
	ErrTaskNotFound = errors.New("task not found")
)

// Task-level mutations never edit a board in place: each builds a fresh task
// list and funnels it through UpdateBoard, which replaces the board value
// wholesale. That keeps every task operation undoable and the derived task
// view consistent, with no extra bookkeeping here.

// AddTask validates the task and appends it to the board's active list.
func (s *Store) AddTask(boardID string, t Task) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	idx := s.boardIndex(boardID)
	if idx < 0 {
		return fmt.Errorf("cannot add task to board %q: %w", boardID, ErrBoardNotFound)
	}
	board := s.state.Boards[idx]

	for _, existing := range board.Tasks {
		if existing.ID == t.ID {
			return fmt.Errorf("task ID %q already exists on board %q", t.ID, boardID)
		}
	}
	for _, existing := range board.ArchivedTasks {
		if existing.ID == t.ID {
			return fmt.Errorf("task ID %q already exists on board %q", t.ID, boardID)
		}
	}

	tasks := append(cloneTasks(board.Tasks), t)
	s.UpdateBoard(boardID, BoardPatch{Tasks: &tasks})
	return nil
}

// UpdateTaskText replaces a task's text.
func (s *Store) UpdateTaskText(boardID, taskID, text string) error {
	return s.replaceTask(boardID, taskID, func(t Task) Task {
		return t.WithText(text)
	})
}

// MoveTask transitions a task to a new lifecycle status. Moving into done
// stamps CompletedDate; moving out of done clears it.
func (s *Store) MoveTask(boardID, taskID string, status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	return s.replaceTask(boardID, taskID, func(t Task) Task {
		return t.WithStatus(status)
	})
}

// RemoveTask deletes a task from the board's active list.
func (s *Store) RemoveTask(boardID, taskID string) error {
	idx := s.boardIndex(boardID)
	if idx < 0 {
		return fmt.Errorf("board %q: %w", boardID, ErrBoardNotFound)
	}
	board := s.state.Boards[idx]

	tasks, _, found := extractTask(board.Tasks, taskID)
	if !found {
		return fmt.Errorf("task %q on board %q: %w", taskID, boardID, ErrTaskNotFound)
	}

	s.UpdateBoard(boardID, BoardPatch{Tasks: &tasks})
	return nil
}

// ArchiveTask moves a task from the active list to the archived list,
// replacing both slices in one atomic board update.
func (s *Store) ArchiveTask(boardID, taskID string) error {
	idx := s.boardIndex(boardID)
	if idx < 0 {
		return fmt.Errorf("board %q: %w", boardID, ErrBoardNotFound)
	}
	board := s.state.Boards[idx]

	tasks, task, found := extractTask(board.Tasks, taskID)
	if !found {
		return fmt.Errorf("task %q on board %q: %w", taskID, boardID, ErrTaskNotFound)
	}

	archived := append(cloneTasks(board.ArchivedTasks), task.Archive())
	s.UpdateBoard(boardID, BoardPatch{Tasks: &tasks, ArchivedTasks: &archived})
	return nil
}

// RestoreTask moves an archived task back onto the active list.
func (s *Store) RestoreTask(boardID, taskID string) error {
	idx := s.boardIndex(boardID)
	if idx < 0 {
		return fmt.Errorf("board %q: %w", boardID, ErrBoardNotFound)
	}
	board := s.state.Boards[idx]

	archived, task, found := extractTask(board.ArchivedTasks, taskID)
	if !found {
		return fmt.Errorf("archived task %q on board %q: %w", taskID, boardID, ErrTaskNotFound)
	}

	tasks := append(cloneTasks(board.Tasks), task.Restore())
	s.UpdateBoard(boardID, BoardPatch{Tasks: &tasks, ArchivedTasks: &archived})
	return nil
}

// replaceTask applies an update function to one active task and writes the
// resulting list back through UpdateBoard.
func (s *Store) replaceTask(boardID, taskID string, update func(Task) Task) error {
	idx := s.boardIndex(boardID)
	if idx < 0 {
		return fmt.Errorf("board %q: %w", boardID, ErrBoardNotFound)
	}
	board := s.state.Boards[idx]

	tasks := cloneTasks(board.Tasks)
	for i, t := range tasks {
		if t.ID == taskID {
			tasks[i] = update(t)
			s.UpdateBoard(boardID, BoardPatch{Tasks: &tasks})
			return nil
		}
	}

	return fmt.Errorf("task %q on board %q: %w", taskID, boardID, ErrTaskNotFound)
}

// extractTask removes the task with the given ID from a list, returning the
// remaining list, the removed task and whether it was found.
func extractTask(list []Task, taskID string) ([]Task, Task, bool) {
	for i, t := range list {
		if t.ID == taskID {
			remaining := make([]Task, 0, len(list)-1)
			remaining = append(remaining, list[:i]...)
			remaining = append(remaining, list[i+1:]...)
			return remaining, t, true
		}
	}
	return nil, Task{}, false
}
