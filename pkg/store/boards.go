package store

import "fmt"

// AddBoard validates the board and appends it to the collection via Set, so
// the addition is undoable. If the new board claims the default flag, any
// existing default loses it in the same atomic update - at most one board is
// the default at any time. Publishes board:added.
func (s *Store) AddBoard(b Board) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("invalid board: %w", err)
	}

	for _, existing := range s.state.Boards {
		if existing.ID == b.ID {
			return fmt.Errorf("board ID %q already exists", b.ID)
		}
	}

	boards := cloneBoards(s.state.Boards)
	if b.IsDefault {
		for i := range boards {
			boards[i].IsDefault = false
		}
	}
	boards = append(boards, b.Clone())

	s.Set(Patch{KeyBoards: boards})
	s.bus.publish(Event{Type: EventBoardAdded, Payload: b.Clone()})
	return nil
}

// UpdateBoard replaces the matching board with a new value carrying the patch
// and a fresh LastModified. An unknown board ID is a logged no-op, not an
// error - callers that need to report failure check existence first.
// Publishes board:updated.
func (s *Store) UpdateBoard(boardID string, patch BoardPatch) {
	idx := s.boardIndex(boardID)
	if idx < 0 {
		s.logger.Printf("store: update for unknown board %q ignored", boardID)
		return
	}

	boards := cloneBoards(s.state.Boards)
	boards[idx] = boards[idx].Merge(patch)
	if patch.IsDefault != nil && *patch.IsDefault {
		for i := range boards {
			if i != idx {
				boards[i].IsDefault = false
			}
		}
	}

	s.Set(Patch{KeyBoards: boards})
	s.bus.publish(Event{Type: EventBoardUpdated, Payload: boards[idx].Clone()})
}

// RemoveBoard removes a board from the collection. When the removed board was
// the current one, the selection moves to the first remaining board (or to
// none), and the derived task view follows in the same atomic update. The
// default board is protected and cannot be removed; unknown IDs are logged
// no-ops. Publishes board:removed.
func (s *Store) RemoveBoard(boardID string) {
	idx := s.boardIndex(boardID)
	if idx < 0 {
		s.logger.Printf("store: removal of unknown board %q ignored", boardID)
		return
	}

	removed := s.state.Boards[idx]
	if removed.IsDefault {
		s.logger.Printf("store: refusing to remove default board %q", boardID)
		return
	}

	boards := make([]Board, 0, len(s.state.Boards)-1)
	for i, b := range s.state.Boards {
		if i != idx {
			boards = append(boards, b.Clone())
		}
	}

	patch := Patch{KeyBoards: boards}
	if s.state.CurrentBoardID == boardID {
		if len(boards) > 0 {
			patch[KeyCurrentBoardID] = boards[0].ID
		} else {
			patch[KeyCurrentBoardID] = ""
		}
	}

	s.Set(patch)
	s.bus.publish(Event{Type: EventBoardRemoved, Payload: removed.Clone()})
}

// SetCurrentBoard selects a board by ID, recomputing the derived task view
// atomically. An empty ID clears the selection. An unknown ID is a logged
// no-op.
func (s *Store) SetCurrentBoard(boardID string) {
	if boardID != "" && s.boardIndex(boardID) < 0 {
		s.logger.Printf("store: selection of unknown board %q ignored", boardID)
		return
	}
	s.Set(Patch{KeyCurrentBoardID: boardID})
}

// GetCurrentBoard returns a copy of the selected board, or nil when no board
// is selected.
func (s *Store) GetCurrentBoard() *Board {
	idx := s.boardIndex(s.state.CurrentBoardID)
	if idx < 0 {
		return nil
	}
	b := s.state.Boards[idx].Clone()
	return &b
}

// GetBoard returns a copy of the board with the given ID, or nil.
func (s *Store) GetBoard(boardID string) *Board {
	idx := s.boardIndex(boardID)
	if idx < 0 {
		return nil
	}
	b := s.state.Boards[idx].Clone()
	return &b
}

// GetActiveBoards returns copies of all boards that are not archived.
func (s *Store) GetActiveBoards() []Board {
	return s.partitionBoards(false)
}

// GetArchivedBoards returns copies of all archived boards.
func (s *Store) GetArchivedBoards() []Board {
	return s.partitionBoards(true)
}

func (s *Store) partitionBoards(archived bool) []Board {
	out := []Board{}
	for _, b := range s.state.Boards {
		if b.IsArchived == archived {
			out = append(out, b.Clone())
		}
	}
	return out
}

// boardIndex returns the position of a board in the collection, -1 when the
// ID is empty or unknown.
func (s *Store) boardIndex(boardID string) int {
	if boardID == "" {
		return -1
	}
	for i, b := range s.state.Boards {
		if b.ID == boardID {
			return i
		}
	}
	return -1
}
