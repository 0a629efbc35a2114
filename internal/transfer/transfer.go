// Package transfer implements import and export of the full board
// collection as a versioned JSON document, including the merge strategy used
// when importing into a non-empty store.
package transfer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dyluth/drey/pkg/store"
)

// FormatVersion is written into every export and checked on import.
const FormatVersion = "1.0"

// Document is the import/export wire shape.
type Document struct {
	Version        string        `json:"version"`
	ExportedAt     time.Time     `json:"exportedAt"`
	Boards         []store.Board `json:"boards"`
	CurrentBoardID string        `json:"currentBoardId,omitempty"`
	Filter         string        `json:"filter,omitempty"`
}

// Export serializes the state into an indented JSON document.
func Export(state store.State) ([]byte, error) {
	doc := Document{
		Version:        FormatVersion,
		ExportedAt:     time.Now().UTC(),
		Boards:         state.Boards,
		CurrentBoardID: state.CurrentBoardID,
		Filter:         state.Filter,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize export: %w", err)
	}

	return data, nil
}

// Parse decodes an exported document. It rejects unreadable JSON and
// unsupported format versions; deeper schema validation is a separate
// concern owned by the caller's security layer.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse import document: %w", err)
	}

	if doc.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported import version: %q (expected: %s)", doc.Version, FormatVersion)
	}

	return &doc, nil
}

// Merge combines an incoming board collection into an existing one.
//
// Boards are matched by ID. An unmatched incoming board is appended. For a
// matched pair the board whose LastModified is newer supplies the scalar
// fields, and the task lists are merged task-by-task with the same
// newest-wins rule. Existing board order is preserved; new boards keep their
// incoming order. Neither input slice is modified.
func Merge(existing, incoming []store.Board) []store.Board {
	merged := make([]store.Board, 0, len(existing)+len(incoming))
	incomingByID := make(map[string]store.Board, len(incoming))
	for _, b := range incoming {
		incomingByID[b.ID] = b
	}

	for _, current := range existing {
		in, ok := incomingByID[current.ID]
		if !ok {
			merged = append(merged, current.Clone())
			continue
		}
		merged = append(merged, mergeBoards(current, in))
		delete(incomingByID, current.ID)
	}

	for _, b := range incoming {
		if _, pending := incomingByID[b.ID]; pending {
			merged = append(merged, b.Clone())
		}
	}

	return merged
}

// PickCurrent chooses the current board after an import. The first candidate
// that exists in boards wins; with no surviving candidate the first board is
// selected, and an empty collection clears the selection.
func PickCurrent(boards []store.Board, candidates ...string) string {
	for _, id := range candidates {
		if id == "" {
			continue
		}
		for _, b := range boards {
			if b.ID == id {
				return id
			}
		}
	}
	if len(boards) > 0 {
		return boards[0].ID
	}
	return ""
}

// mergeBoards resolves one matched board pair.
func mergeBoards(a, b store.Board) store.Board {
	base, other := a, b
	if b.LastModified.After(a.LastModified) {
		base, other = b, a
	}

	result := base.Clone()
	result.Tasks = mergeTasks(base.Tasks, other.Tasks)
	result.ArchivedTasks = mergeTasks(base.ArchivedTasks, other.ArchivedTasks)
	return result
}

// mergeTasks unions two task lists by ID, newest LastModified winning on
// conflict. Base order is preserved, unmatched other tasks append.
func mergeTasks(base, other []store.Task) []store.Task {
	merged := make([]store.Task, 0, len(base)+len(other))
	otherByID := make(map[string]store.Task, len(other))
	for _, t := range other {
		otherByID[t.ID] = t
	}

	for _, t := range base {
		if o, ok := otherByID[t.ID]; ok && o.LastModified.After(t.LastModified) {
			merged = append(merged, o)
		} else {
			merged = append(merged, t)
		}
		delete(otherByID, t.ID)
	}

	for _, t := range other {
		if _, pending := otherByID[t.ID]; pending {
			merged = append(merged, t)
		}
	}

	return merged
}
