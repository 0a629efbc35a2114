package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeWithBoard(t *testing.T) *Store {
	t.Helper()
	s := New(Config{Logger: testLogger()})
	require.NoError(t, s.AddBoard(Board{ID: "b1", Name: "Work"}))
	s.SetCurrentBoard("b1")
	return s
}

func TestAddTask(t *testing.T) {
	s := storeWithBoard(t)

	require.NoError(t, s.AddTask("b1", Task{ID: "t1", Text: "Buy milk", Status: StatusTodo}))

	board := s.GetCurrentBoard()
	require.Len(t, board.Tasks, 1)
	assert.Equal(t, "Buy milk", board.Tasks[0].Text)

	// Derived view follows in the same update.
	tasks := s.Get(KeyTasks).([]Task)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", tasks[0].ID)
}

func TestAddTaskErrors(t *testing.T) {
	s := storeWithBoard(t)
	require.NoError(t, s.AddTask("b1", Task{ID: "t1", Text: "one", Status: StatusTodo}))

	t.Run("unknown board", func(t *testing.T) {
		err := s.AddTask("nope", Task{ID: "t2", Text: "x", Status: StatusTodo})
		assert.ErrorIs(t, err, ErrBoardNotFound)
	})

	t.Run("invalid task", func(t *testing.T) {
		assert.Error(t, s.AddTask("b1", Task{ID: "t2", Text: "", Status: StatusTodo}))
	})

	t.Run("duplicate ID", func(t *testing.T) {
		assert.Error(t, s.AddTask("b1", Task{ID: "t1", Text: "again", Status: StatusTodo}))
	})
}

func TestMoveTask(t *testing.T) {
	s := storeWithBoard(t)
	require.NoError(t, s.AddTask("b1", Task{ID: "t1", Text: "ship", Status: StatusTodo}))

	require.NoError(t, s.MoveTask("b1", "t1", StatusDone))

	task := s.GetCurrentBoard().Tasks[0]
	assert.Equal(t, StatusDone, task.Status)
	require.NotNil(t, task.CompletedDate)

	require.NoError(t, s.MoveTask("b1", "t1", StatusDoing))
	task = s.GetCurrentBoard().Tasks[0]
	assert.Equal(t, StatusDoing, task.Status)
	assert.Nil(t, task.CompletedDate)

	assert.Error(t, s.MoveTask("b1", "t1", "paused"))
	assert.ErrorIs(t, s.MoveTask("b1", "nope", StatusDone), ErrTaskNotFound)
}

func TestUpdateTaskText(t *testing.T) {
	s := storeWithBoard(t)
	require.NoError(t, s.AddTask("b1", Task{ID: "t1", Text: "old", Status: StatusTodo}))

	require.NoError(t, s.UpdateTaskText("b1", "t1", "new"))
	assert.Equal(t, "new", s.GetCurrentBoard().Tasks[0].Text)

	assert.ErrorIs(t, s.UpdateTaskText("b1", "nope", "x"), ErrTaskNotFound)
	assert.ErrorIs(t, s.UpdateTaskText("nope", "t1", "x"), ErrBoardNotFound)
}

func TestRemoveTask(t *testing.T) {
	s := storeWithBoard(t)
	require.NoError(t, s.AddTask("b1", Task{ID: "t1", Text: "one", Status: StatusTodo}))
	require.NoError(t, s.AddTask("b1", Task{ID: "t2", Text: "two", Status: StatusTodo}))

	require.NoError(t, s.RemoveTask("b1", "t1"))

	board := s.GetCurrentBoard()
	require.Len(t, board.Tasks, 1)
	assert.Equal(t, "t2", board.Tasks[0].ID)

	assert.ErrorIs(t, s.RemoveTask("b1", "t1"), ErrTaskNotFound)
}

func TestArchiveAndRestoreTask(t *testing.T) {
	s := storeWithBoard(t)
	require.NoError(t, s.AddTask("b1", Task{ID: "t1", Text: "done thing", Status: StatusDone}))

	require.NoError(t, s.ArchiveTask("b1", "t1"))

	board := s.GetCurrentBoard()
	assert.Empty(t, board.Tasks)
	require.Len(t, board.ArchivedTasks, 1)
	assert.True(t, board.ArchivedTasks[0].Archived)
	require.NotNil(t, board.ArchivedTasks[0].ArchivedDate)
	assert.Empty(t, s.Get(KeyTasks), "derived view excludes archived tasks")

	require.NoError(t, s.RestoreTask("b1", "t1"))

	board = s.GetCurrentBoard()
	require.Len(t, board.Tasks, 1)
	assert.False(t, board.Tasks[0].Archived)
	assert.Empty(t, board.ArchivedTasks)

	assert.ErrorIs(t, s.ArchiveTask("b1", "nope"), ErrTaskNotFound)
	assert.ErrorIs(t, s.RestoreTask("b1", "nope"), ErrTaskNotFound)
}

func TestTaskOperationsAreUndoable(t *testing.T) {
	s := storeWithBoard(t)
	require.NoError(t, s.AddTask("b1", Task{ID: "t1", Text: "one", Status: StatusTodo}))
	require.NoError(t, s.MoveTask("b1", "t1", StatusDone))

	require.True(t, s.Undo())
	assert.Equal(t, StatusTodo, s.GetCurrentBoard().Tasks[0].Status)

	require.True(t, s.Undo())
	assert.Empty(t, s.GetCurrentBoard().Tasks)

	require.True(t, s.Redo())
	require.Len(t, s.GetCurrentBoard().Tasks, 1)
}
