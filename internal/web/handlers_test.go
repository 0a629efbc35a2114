package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/drey/internal/storage"
	"github.com/dyluth/drey/internal/transfer"
	"github.com/dyluth/drey/pkg/store"
)

// newTestServer builds a server over a fresh store and a file adapter in a
// temp directory, so persistence side effects can be inspected.
func newTestServer(t *testing.T) (*Server, *storage.FileAdapter) {
	t.Helper()

	logger := log.New(io.Discard, "", 0)
	st := store.New(store.Config{Logger: logger})

	adapter, err := storage.NewFileAdapter(filepath.Join(t.TempDir(), "drey.json"))
	require.NoError(t, err)

	return New(st, adapter, logger), adapter
}

// do runs a request through the server's router and decodes the JSON
// response body into out when out is non-nil.
func do(t *testing.T, s *Server, method, path string, body string, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out),
			"response body: %s", rec.Body.String())
	}
	return rec
}

// createBoard is a shortcut for the common test fixture.
func createBoard(t *testing.T, s *Server, name string) store.Board {
	t.Helper()

	var board store.Board
	rec := do(t, s, http.MethodPost, "/api/boards", fmt.Sprintf(`{"name":%q}`, name), &board)
	require.Equal(t, http.StatusCreated, rec.Code)
	return board
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)

	var body map[string]string
	rec := do(t, s, http.MethodGet, "/healthz", "", &body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestCreateBoard(t *testing.T) {
	s, adapter := newTestServer(t)

	var board store.Board
	rec := do(t, s, http.MethodPost, "/api/boards", `{"name":"Work","color":"#112233"}`, &board)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, board.ID)
	assert.Equal(t, "Work", board.Name)
	assert.Equal(t, "#112233", board.Color)

	// The mutation was persisted through the adapter.
	snap, err := adapter.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Boards, 1)
	assert.Equal(t, board.ID, snap.Boards[0].ID)
}

func TestCreateBoard_InvalidName(t *testing.T) {
	s, _ := newTestServer(t)

	var body errorResponse
	rec := do(t, s, http.MethodPost, "/api/boards", `{"name":""}`, &body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body.Error, "name")
}

func TestUpdateBoard(t *testing.T) {
	s, _ := newTestServer(t)
	board := createBoard(t, s, "Work")

	var updated store.Board
	rec := do(t, s, http.MethodPatch, "/api/boards/"+board.ID, `{"name":"Renamed"}`, &updated)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, board.ID, updated.ID)
}

func TestUpdateBoard_NotFound(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPatch, "/api/boards/nope", `{"name":"x"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveBoard(t *testing.T) {
	s, _ := newTestServer(t)
	board := createBoard(t, s, "Doomed")

	rec := do(t, s, http.MethodDelete, "/api/boards/"+board.ID, "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	var boards []store.Board
	do(t, s, http.MethodGet, "/api/boards", "", &boards)
	assert.Empty(t, boards)
}

func TestRemoveBoard_DefaultIsProtected(t *testing.T) {
	s, _ := newTestServer(t)

	var board store.Board
	rec := do(t, s, http.MethodPost, "/api/boards", `{"name":"Home","isDefault":true}`, &board)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body errorResponse
	rec = do(t, s, http.MethodDelete, "/api/boards/"+board.ID, "", &body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, body.Error, "default")
}

func TestSelectBoard(t *testing.T) {
	s, _ := newTestServer(t)
	board := createBoard(t, s, "Work")

	var state store.State
	rec := do(t, s, http.MethodPost, "/api/boards/"+board.ID+"/select", "", &state)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, board.ID, state.CurrentBoardID)

	rec = do(t, s, http.MethodPost, "/api/boards/nope/select", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListBoards_ArchivedFilter(t *testing.T) {
	s, _ := newTestServer(t)
	active := createBoard(t, s, "Active")
	archived := createBoard(t, s, "Archived")
	do(t, s, http.MethodPatch, "/api/boards/"+archived.ID, `{"isArchived":true}`, nil)

	var boards []store.Board
	do(t, s, http.MethodGet, "/api/boards", "", &boards)
	require.Len(t, boards, 1)
	assert.Equal(t, active.ID, boards[0].ID)

	do(t, s, http.MethodGet, "/api/boards?archived=true", "", &boards)
	require.Len(t, boards, 1)
	assert.Equal(t, archived.ID, boards[0].ID)
}

func TestCreateTask_OnCurrentBoard(t *testing.T) {
	s, _ := newTestServer(t)
	board := createBoard(t, s, "Work")
	do(t, s, http.MethodPost, "/api/boards/"+board.ID+"/select", "", nil)

	var task store.Task
	rec := do(t, s, http.MethodPost, "/api/tasks", `{"text":"Buy milk"}`, &task)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Buy milk", task.Text)
	assert.Equal(t, store.StatusTodo, task.Status)

	// The derived task view reflects the addition.
	var state store.State
	do(t, s, http.MethodGet, "/api/state", "", &state)
	require.Len(t, state.Tasks, 1)
	assert.Equal(t, task.ID, state.Tasks[0].ID)
}

func TestCreateTask_NoBoardSelected(t *testing.T) {
	s, _ := newTestServer(t)

	var body errorResponse
	rec := do(t, s, http.MethodPost, "/api/tasks", `{"text":"orphan"}`, &body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body.Error, "no board selected")
}

func TestUpdateTask_TextAndStatus(t *testing.T) {
	s, _ := newTestServer(t)
	board := createBoard(t, s, "Work")

	var task store.Task
	do(t, s, http.MethodPost, "/api/tasks", fmt.Sprintf(`{"boardId":%q,"text":"draft"}`, board.ID), &task)

	var updated store.Task
	rec := do(t, s, http.MethodPatch, "/api/tasks/"+task.ID,
		fmt.Sprintf(`{"boardId":%q,"text":"final","status":"done"}`, board.ID), &updated)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "final", updated.Text)
	assert.Equal(t, store.StatusDone, updated.Status)
	assert.NotNil(t, updated.CompletedDate)
}

func TestUpdateTask_ResolvesBoardByTaskID(t *testing.T) {
	s, _ := newTestServer(t)
	board := createBoard(t, s, "Work")

	var task store.Task
	do(t, s, http.MethodPost, "/api/tasks", fmt.Sprintf(`{"boardId":%q,"text":"find me"}`, board.ID), &task)

	// No boardId in the request: the server locates the task itself.
	var updated store.Task
	rec := do(t, s, http.MethodPatch, "/api/tasks/"+task.ID, `{"status":"doing"}`, &updated)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, store.StatusDoing, updated.Status)
}

func TestUpdateTask_NotFound(t *testing.T) {
	s, _ := newTestServer(t)
	createBoard(t, s, "Work")

	rec := do(t, s, http.MethodPatch, "/api/tasks/missing", `{"status":"doing"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskArchiveRestoreRemove(t *testing.T) {
	s, _ := newTestServer(t)
	board := createBoard(t, s, "Work")

	var task store.Task
	do(t, s, http.MethodPost, "/api/tasks", fmt.Sprintf(`{"boardId":%q,"text":"cycle"}`, board.ID), &task)

	rec := do(t, s, http.MethodPost, "/api/tasks/"+task.ID+"/archive", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	var state store.State
	do(t, s, http.MethodGet, "/api/state", "", &state)
	require.Len(t, state.Boards[0].ArchivedTasks, 1)
	assert.True(t, state.Boards[0].ArchivedTasks[0].Archived)

	rec = do(t, s, http.MethodPost, "/api/tasks/"+task.ID+"/restore", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/tasks/"+task.ID, "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	do(t, s, http.MethodGet, "/api/state", "", &state)
	assert.Empty(t, state.Boards[0].Tasks)
	assert.Empty(t, state.Boards[0].ArchivedTasks)
}

func TestUndoRedo(t *testing.T) {
	s, _ := newTestServer(t)
	createBoard(t, s, "First")
	createBoard(t, s, "Second")

	var resp timeTravelResponse
	rec := do(t, s, http.MethodPost, "/api/undo", "", &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Applied)
	assert.Len(t, resp.State.Boards, 1)

	rec = do(t, s, http.MethodPost, "/api/redo", "", &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Applied)
	assert.Len(t, resp.State.Boards, 2)

	// Nothing left to redo: applied=false, state unchanged.
	do(t, s, http.MethodPost, "/api/redo", "", &resp)
	assert.False(t, resp.Applied)
	assert.Len(t, resp.State.Boards, 2)
}

func TestExportImport_Replace(t *testing.T) {
	source, _ := newTestServer(t)
	board := createBoard(t, source, "Exported")
	do(t, source, http.MethodPost, "/api/tasks", fmt.Sprintf(`{"boardId":%q,"text":"ship it"}`, board.ID), nil)

	rec := do(t, source, http.MethodGet, "/api/export", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	exported := rec.Body.String()

	target, _ := newTestServer(t)
	createBoard(t, target, "Will be replaced")

	var state store.State
	rec = do(t, target, http.MethodPost, "/api/import?mode=replace", exported, &state)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, state.Boards, 1)
	assert.Equal(t, board.ID, state.Boards[0].ID)
	assert.Equal(t, board.ID, state.CurrentBoardID)
}

func TestImport_MergeKeepsExisting(t *testing.T) {
	s, _ := newTestServer(t)
	existing := createBoard(t, s, "Existing")
	do(t, s, http.MethodPost, "/api/boards/"+existing.ID+"/select", "", nil)

	incoming := store.NewBoard("Incoming", "", "")
	doc, err := transfer.Export(store.State{Boards: []store.Board{incoming}})
	require.NoError(t, err)

	var state store.State
	rec := do(t, s, http.MethodPost, "/api/import?mode=merge", string(doc), &state)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, state.Boards, 2)
	assert.Equal(t, existing.ID, state.CurrentBoardID, "existing selection survives a merge")

	// A merge import is a single undo step.
	var resp timeTravelResponse
	do(t, s, http.MethodPost, "/api/undo", "", &resp)
	assert.True(t, resp.Applied)
	assert.Len(t, resp.State.Boards, 1)
}

func TestEvents_StreamsBusEvents(t *testing.T) {
	s, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.echo.ServeHTTP(rec, req)
	}()

	// Give the stream a moment to subscribe before mutating. The bus
	// channel is buffered, so a lost race only delays the event.
	time.Sleep(50 * time.Millisecond)
	createBoard(t, s, "Streamed")
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := rec.Body.String()
	assert.Contains(t, body, "event: board:added")
	assert.Contains(t, body, "event: state:changed")
	assert.Contains(t, body, "Streamed")
}

func TestImport_Rejections(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/import", `{"version":"9.9","boards":[]}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/import?mode=sideways", `{"version":"1.0","boards":[]}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
