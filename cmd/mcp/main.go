package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	mcpadapter "github.com/docdesk/docdesk/internal/adapters/mcp"
	"github.com/docdesk/docdesk/internal/bootstrap"
	"github.com/docdesk/docdesk/internal/config"
	"github.com/docdesk/docdesk/internal/observability/logging"
)

const service = "docdesk-mcp"

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	// stdout carries the protocol stream, so everything else goes to stderr.
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, service, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	srv := mcpadapter.NewServer(app.QueryUC, app.QueryUC)
	slog.Info("mcp_serving", "topics", app.Catalog.Len())
	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("mcp server error: %v", err)
	}
}
