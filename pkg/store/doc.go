// Package store implements the reactive state store at the heart of Drey,
// the task-board organizer.
//
// # Overview
//
// The store owns a single canonical state object: the board collection, the
// selected board ID, the UI filter, and a derived task list projected from
// the first two. Every feature - task CRUD, board lifecycle, import merge,
// settings - mutates through the store's operations, and every read leaves
// through a copy.
//
// # Core Concepts
//
// Boards and Tasks are immutable value objects: an update produces a new
// value with a fresh LastModified, never an in-place edit. Boards replace
// their task list wholesale on every task-level mutation.
//
// The derived task list is a pure projection, deriveTasks(boards,
// currentBoardID), recomputed inside the same atomic update as any
// structural change. Callers can never write it directly.
//
// Every history-tracked mutation pushes a deep snapshot of the whole state
// onto a bounded, linear undo/redo timeline. Writing mid-history discards
// the redo branch; exceeding the capacity evicts the oldest entry.
//
// # Notification
//
// Two channels exist side by side. Field subscribers (Subscribe) run
// synchronously, in registration order, with (new, old) values; a panicking
// subscriber is isolated and the mutation is not rolled back. The Bus fans
// out coarse-grained events (board:added, state:changed, state:undo, ...)
// over buffered channels for collaborators like the persistence layer and
// the SSE stream.
//
// # Concurrency
//
// The store is single-goroutine owned. Notification is synchronous and
// subscribers may re-enter the store, so there is no internal lock; callers
// that share a store across goroutines (like the HTTP layer) serialize
// access themselves.
//
// # Usage Example
//
//	st := store.New(store.Config{})
//
//	board := store.NewBoard("Work", "", "")
//	if err := st.AddBoard(board); err != nil {
//		log.Fatal(err)
//	}
//	st.SetCurrentBoard(board.ID)
//
//	if err := st.AddTask(board.ID, store.NewTask("Buy milk")); err != nil {
//		log.Fatal(err)
//	}
//
//	st.Undo() // board back to zero tasks
//	st.Redo() // and forward again
//
// # Error Handling
//
// There is no fatal failure mode inside the store. Malformed patches and
// unknown board IDs on the lifecycle operations degrade to logged no-ops;
// Undo/Redo return false at the timeline boundary; task operations return
// sentinel errors (ErrBoardNotFound, ErrTaskNotFound) the caller can test
// with errors.Is.
package store
