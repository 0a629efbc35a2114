package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/internal/web"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the boards over an HTTP API",
	Long: `Serve the boards over an HTTP API with a server-sent-events stream
of state changes at /api/events.

The listen address comes from server.listen in drey.yml and can be
overridden with --listen. The server shuts down cleanly on SIGINT/SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides server.listen)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	listen := cfg.Server.Listen
	if serveListen != "" {
		listen = serveListen
	}

	st, adapter, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer adapter.Close()

	server := web.New(st, adapter, nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(listen)
	}()

	printer.Info("Serving on %s\n", listen)
	printer.Detail("  backend: %s\n", cfg.Storage.Backend)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	printer.Info("\nShutting down...\n")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
