package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dyluth/drey/pkg/store"
)

// Serialization helpers for converting between boards and Redis hashes.
//
// Redis stores data as string-to-string maps (hashes). Task slices are
// JSON-encoded into single hash fields, scalar fields stay individually
// queryable. Timestamps are RFC 3339 strings.

// BoardToHash converts a Board to a Redis hash format.
func BoardToHash(b *store.Board) (map[string]interface{}, error) {
	tasksJSON, err := json.Marshal(b.Tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tasks: %w", err)
	}

	archivedJSON, err := json.Marshal(b.ArchivedTasks)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal archived tasks: %w", err)
	}

	hash := map[string]interface{}{
		"id":             b.ID,
		"name":           b.Name,
		"description":    b.Description,
		"color":          b.Color,
		"is_default":     strconv.FormatBool(b.IsDefault),
		"is_archived":    strconv.FormatBool(b.IsArchived),
		"created_date":   b.CreatedDate.UTC().Format(time.RFC3339Nano),
		"last_modified":  b.LastModified.UTC().Format(time.RFC3339Nano),
		"tasks":          string(tasksJSON),
		"archived_tasks": string(archivedJSON),
	}

	return hash, nil
}

// HashToBoard converts a Redis hash back to a Board.
func HashToBoard(hash map[string]string) (*store.Board, error) {
	isDefault, err := strconv.ParseBool(hash["is_default"])
	if err != nil {
		return nil, fmt.Errorf("invalid is_default field: %w", err)
	}

	isArchived, err := strconv.ParseBool(hash["is_archived"])
	if err != nil {
		return nil, fmt.Errorf("invalid is_archived field: %w", err)
	}

	createdDate, err := time.Parse(time.RFC3339Nano, hash["created_date"])
	if err != nil {
		return nil, fmt.Errorf("invalid created_date field: %w", err)
	}

	lastModified, err := time.Parse(time.RFC3339Nano, hash["last_modified"])
	if err != nil {
		return nil, fmt.Errorf("invalid last_modified field: %w", err)
	}

	var tasks []store.Task
	if tasksJSON := hash["tasks"]; tasksJSON != "" {
		if err := json.Unmarshal([]byte(tasksJSON), &tasks); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tasks: %w", err)
		}
	}

	var archivedTasks []store.Task
	if archivedJSON := hash["archived_tasks"]; archivedJSON != "" {
		if err := json.Unmarshal([]byte(archivedJSON), &archivedTasks); err != nil {
			return nil, fmt.Errorf("failed to unmarshal archived_tasks: %w", err)
		}
	}

	// Empty slices instead of nil for consistency with store factories.
	if tasks == nil {
		tasks = []store.Task{}
	}
	if archivedTasks == nil {
		archivedTasks = []store.Task{}
	}

	board := &store.Board{
		ID:            hash["id"],
		Name:          hash["name"],
		Description:   hash["description"],
		Color:         hash["color"],
		IsDefault:     isDefault,
		IsArchived:    isArchived,
		CreatedDate:   createdDate,
		LastModified:  lastModified,
		Tasks:         tasks,
		ArchivedTasks: archivedTasks,
	}

	return board, nil
}
