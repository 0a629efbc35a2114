// Package web exposes the state store over HTTP for the browser UI: a JSON
// API for board and task operations, undo/redo, import/export, and a
// server-sent-events stream bridged from the store's notification bus.
package web

import (
	"context"
	"log"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dyluth/drey/internal/storage"
	"github.com/dyluth/drey/pkg/store"
)

// Server wires the store and its storage adapter behind an echo instance.
//
// The store is single-goroutine owned, so every handler takes the server
// mutex around its store interaction; re-entrant mutations from store
// subscribers stay on the same goroutine and never touch this lock.
type Server struct {
	mu      sync.Mutex
	store   *store.Store
	adapter storage.Adapter
	logger  *log.Logger
	echo    *echo.Echo
}

// New creates a server around an already-loaded store.
func New(st *store.Store, adapter storage.Adapter, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		store:   st,
		adapter: adapter,
		logger:  logger,
		echo:    e,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)

	api := s.echo.Group("/api")
	api.GET("/state", s.handleGetState)
	api.GET("/events", s.handleEvents)

	api.GET("/boards", s.handleListBoards)
	api.POST("/boards", s.handleCreateBoard)
	api.PATCH("/boards/:id", s.handleUpdateBoard)
	api.DELETE("/boards/:id", s.handleRemoveBoard)
	api.POST("/boards/:id/select", s.handleSelectBoard)

	api.POST("/tasks", s.handleCreateTask)
	api.PATCH("/tasks/:id", s.handleUpdateTask)
	api.DELETE("/tasks/:id", s.handleRemoveTask)
	api.POST("/tasks/:id/archive", s.handleArchiveTask)
	api.POST("/tasks/:id/restore", s.handleRestoreTask)

	api.POST("/undo", s.handleUndo)
	api.POST("/redo", s.handleRedo)

	api.GET("/export", s.handleExport)
	api.POST("/import", s.handleImport)
}

// Start blocks serving HTTP on addr until Shutdown or a listener error.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// persist saves the store's current state through the adapter. Persistence
// runs after the mutation has settled; a failing save is logged, not rolled
// back - the in-memory state stays authoritative for the session.
func (s *Server) persist(ctx context.Context) {
	state := s.store.GetState()
	snap := &storage.Snapshot{
		Boards:         state.Boards,
		CurrentBoardID: state.CurrentBoardID,
		Filter:         state.Filter,
	}
	if err := s.adapter.Save(ctx, snap); err != nil {
		s.logger.Printf("web: failed to persist state: %v", err)
	}
}
