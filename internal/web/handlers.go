package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dyluth/drey/internal/transfer"
	"github.com/dyluth/drey/pkg/store"
)

// keepaliveInterval is how often the SSE stream emits a comment line to keep
// idle proxies from closing the connection.
const keepaliveInterval = 15 * time.Second

// errorResponse is the JSON body returned for every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

func jsonError(c echo.Context, status int, format string, a ...any) error {
	return c.JSON(status, errorResponse{Error: fmt.Sprintf(format, a...)})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetState(c echo.Context) error {
	s.mu.Lock()
	state := s.store.GetState()
	s.mu.Unlock()

	return c.JSON(http.StatusOK, state)
}

func (s *Server) handleListBoards(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var boards []store.Board
	if c.QueryParam("archived") == "true" {
		boards = s.store.GetArchivedBoards()
	} else {
		boards = s.store.GetActiveBoards()
	}
	return c.JSON(http.StatusOK, boards)
}

type createBoardRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	IsDefault   bool   `json:"isDefault"`
}

func (s *Server) handleCreateBoard(c echo.Context) error {
	var req createBoardRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}

	board := store.NewBoard(req.Name, req.Description, req.Color)
	board.IsDefault = req.IsDefault

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.AddBoard(board); err != nil {
		return jsonError(c, http.StatusBadRequest, "%v", err)
	}
	s.persist(c.Request().Context())

	return c.JSON(http.StatusCreated, board)
}

type updateBoardRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	IsDefault   *bool   `json:"isDefault"`
	IsArchived  *bool   `json:"isArchived"`
}

func (s *Server) handleUpdateBoard(c echo.Context) error {
	var req updateBoardRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}

	boardID := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.GetBoard(boardID) == nil {
		return jsonError(c, http.StatusNotFound, "board not found: %s", boardID)
	}

	s.store.UpdateBoard(boardID, store.BoardPatch{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		IsDefault:   req.IsDefault,
		IsArchived:  req.IsArchived,
	})
	s.persist(c.Request().Context())

	return c.JSON(http.StatusOK, s.store.GetBoard(boardID))
}

func (s *Server) handleRemoveBoard(c echo.Context) error {
	boardID := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	board := s.store.GetBoard(boardID)
	if board == nil {
		return jsonError(c, http.StatusNotFound, "board not found: %s", boardID)
	}
	if board.IsDefault {
		return jsonError(c, http.StatusConflict, "cannot remove the default board")
	}

	s.store.RemoveBoard(boardID)
	s.persist(c.Request().Context())

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSelectBoard(c echo.Context) error {
	boardID := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.GetBoard(boardID) == nil {
		return jsonError(c, http.StatusNotFound, "board not found: %s", boardID)
	}

	s.store.SetCurrentBoard(boardID)
	s.persist(c.Request().Context())

	return c.JSON(http.StatusOK, s.store.GetState())
}

type createTaskRequest struct {
	BoardID string `json:"boardId"`
	Text    string `json:"text"`
}

func (s *Server) handleCreateTask(c echo.Context) error {
	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	boardID := req.BoardID
	if boardID == "" {
		current := s.store.GetCurrentBoard()
		if current == nil {
			return jsonError(c, http.StatusBadRequest, "no board selected and no boardId given")
		}
		boardID = current.ID
	}

	task := store.NewTask(req.Text)
	if err := s.store.AddTask(boardID, task); err != nil {
		return taskError(c, err)
	}
	s.persist(c.Request().Context())

	return c.JSON(http.StatusCreated, task)
}

type updateTaskRequest struct {
	BoardID string  `json:"boardId"`
	Text    *string `json:"text"`
	Status  *string `json:"status"`
}

func (s *Server) handleUpdateTask(c echo.Context) error {
	var req updateTaskRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Text == nil && req.Status == nil {
		return jsonError(c, http.StatusBadRequest, "nothing to update: provide text or status")
	}

	taskID := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	boardID, err := s.resolveTaskBoard(req.BoardID, taskID)
	if err != nil {
		return taskError(c, err)
	}

	if req.Text != nil {
		if err := s.store.UpdateTaskText(boardID, taskID, *req.Text); err != nil {
			return taskError(c, err)
		}
	}
	if req.Status != nil {
		if err := s.store.MoveTask(boardID, taskID, store.Status(*req.Status)); err != nil {
			return taskError(c, err)
		}
	}
	s.persist(c.Request().Context())

	return c.JSON(http.StatusOK, s.findTask(boardID, taskID))
}

func (s *Server) handleRemoveTask(c echo.Context) error {
	return s.taskAction(c, s.store.RemoveTask)
}

func (s *Server) handleArchiveTask(c echo.Context) error {
	return s.taskAction(c, s.store.ArchiveTask)
}

func (s *Server) handleRestoreTask(c echo.Context) error {
	return s.taskAction(c, s.store.RestoreTask)
}

// taskAction runs a (boardID, taskID) store mutation shared by the remove,
// archive and restore endpoints. The board may come from the boardId query
// parameter or be resolved by searching for the task.
func (s *Server) taskAction(c echo.Context, action func(boardID, taskID string) error) error {
	taskID := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	boardID, err := s.resolveTaskBoard(c.QueryParam("boardId"), taskID)
	if err != nil {
		return taskError(c, err)
	}

	if err := action(boardID, taskID); err != nil {
		return taskError(c, err)
	}
	s.persist(c.Request().Context())

	return c.NoContent(http.StatusNoContent)
}

// resolveTaskBoard returns the board holding taskID. An explicit boardID is
// trusted as-is; otherwise every board's active and archived lists are
// searched. Callers must hold the server mutex.
func (s *Server) resolveTaskBoard(boardID, taskID string) (string, error) {
	if boardID != "" {
		return boardID, nil
	}

	boards, _ := s.store.Get(store.KeyBoards).([]store.Board)
	for _, b := range boards {
		for _, t := range append(b.Tasks, b.ArchivedTasks...) {
			if t.ID == taskID {
				return b.ID, nil
			}
		}
	}
	return "", store.ErrTaskNotFound
}

// findTask returns the task's current value for response bodies, or nil if
// it has vanished. Callers must hold the server mutex.
func (s *Server) findTask(boardID, taskID string) *store.Task {
	board := s.store.GetBoard(boardID)
	if board == nil {
		return nil
	}
	for _, t := range append(board.Tasks, board.ArchivedTasks...) {
		if t.ID == taskID {
			return &t
		}
	}
	return nil
}

// taskError maps store errors onto HTTP statuses.
func taskError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, store.ErrBoardNotFound), errors.Is(err, store.ErrTaskNotFound):
		return jsonError(c, http.StatusNotFound, "%v", err)
	default:
		return jsonError(c, http.StatusBadRequest, "%v", err)
	}
}

type timeTravelResponse struct {
	Applied bool        `json:"applied"`
	State   store.State `json:"state"`
}

func (s *Server) handleUndo(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := s.store.Undo()
	if applied {
		s.persist(c.Request().Context())
	}
	return c.JSON(http.StatusOK, timeTravelResponse{Applied: applied, State: s.store.GetState()})
}

func (s *Server) handleRedo(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := s.store.Redo()
	if applied {
		s.persist(c.Request().Context())
	}
	return c.JSON(http.StatusOK, timeTravelResponse{Applied: applied, State: s.store.GetState()})
}

func (s *Server) handleExport(c echo.Context) error {
	s.mu.Lock()
	state := s.store.GetState()
	s.mu.Unlock()

	data, err := transfer.Export(state)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "%v", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="drey-export.json"`)
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
}

func (s *Server) handleImport(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "failed to read request body")
	}

	doc, err := transfer.Parse(body)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "%v", err)
	}

	mode := c.QueryParam("mode")
	if mode == "" {
		mode = "merge"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var boards []store.Board
	switch mode {
	case "replace":
		boards = doc.Boards
	case "merge":
		existing, _ := s.store.Get(store.KeyBoards).([]store.Board)
		boards = transfer.Merge(existing, doc.Boards)
	default:
		return jsonError(c, http.StatusBadRequest, "unknown import mode: %q", mode)
	}

	current, _ := s.store.Get(store.KeyCurrentBoardID).(string)

	// One Set, one history entry: the whole import is a single undo step.
	s.store.Set(store.Patch{
		store.KeyBoards:         boards,
		store.KeyCurrentBoardID: transfer.PickCurrent(boards, current, doc.CurrentBoardID),
	})
	s.persist(c.Request().Context())

	return c.JSON(http.StatusOK, s.store.GetState())
}

// handleEvents streams store bus events as server-sent events. Each event's
// type becomes the SSE event name and its payload the JSON data line.
func (s *Server) handleEvents(c echo.Context) error {
	sub := s.store.Bus().Subscribe()
	defer sub.Close()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-sub.Events():
			if !ok {
				return nil
			}
			data, err := json.Marshal(evt.Payload)
			if err != nil {
				s.logger.Printf("web: failed to encode %s event: %v", evt.Type, err)
				continue
			}
			fmt.Fprintf(resp, "event: %s\ndata: %s\n\n", evt.Type, data)
			resp.Flush()
		case <-ticker.C:
			fmt.Fprint(resp, ": keepalive\n\n")
			resp.Flush()
		}
	}
}
