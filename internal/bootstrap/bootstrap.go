package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/docdesk/docdesk/internal/config"
	"github.com/docdesk/docdesk/internal/core/domain"
	"github.com/docdesk/docdesk/internal/core/ports"
	"github.com/docdesk/docdesk/internal/core/usecase"
	"github.com/docdesk/docdesk/internal/infrastructure/catalog"
	"github.com/docdesk/docdesk/internal/infrastructure/groq"
	"github.com/docdesk/docdesk/internal/infrastructure/notion"
	natsqueue "github.com/docdesk/docdesk/internal/infrastructure/queue/nats"
	"github.com/docdesk/docdesk/internal/infrastructure/resilience"
)

type App struct {
	Config  config.Config
	Catalog domain.TopicCatalog

	Events  *natsqueue.Queue
	QueryUC *usecase.AnswerQueryUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	source, cleanup, err := newCatalogSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// The catalog is read once and immutable afterwards; the source
	// connection does not outlive the load.
	topicCatalog, err := source.Load(ctx)
	if cleanup != nil {
		cleanup()
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	fetcher := notion.NewWithOptions(cfg.NotionBaseURL, cfg.NotionToken, notion.Options{
		APIVersion:         cfg.NotionVersion,
		Timeout:            time.Duration(cfg.NotionTimeoutSeconds) * time.Second,
		ResilienceExecutor: executor,
	})
	completions := groq.NewWithOptions(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqScoreModel, cfg.GroqAnswerModel, groq.Options{
		Timeout:            time.Duration(cfg.GroqTimeoutSeconds) * time.Second,
		ResilienceExecutor: executor,
	})

	resolver := usecase.NewResolver(fetcher, completions, usecase.ResolverOptions{
		Phase2Workers:    cfg.ResolverPhase2Workers,
		Memoize:          cfg.ResolverMemoize,
		FetchFailureMode: cfg.ResolverFetchFailureMode,
	})

	var (
		queue  *natsqueue.Queue
		events ports.EventPublisher
	)
	if cfg.EventsEnabled {
		queue, err = natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init event queue: %w", err)
		}
		events = queue
	}

	queryUC := usecase.NewAnswerQueryUseCase(topicCatalog, resolver, completions, events)

	return &App{
		Config:  cfg,
		Catalog: topicCatalog,
		Events:  queue,
		QueryUC: queryUC,

		closeFn: func() {
			if queue != nil {
				queue.Close()
			}
		},
	}, nil
}

func newCatalogSource(ctx context.Context, cfg config.Config) (ports.CatalogSource, func(), error) {
	switch cfg.CatalogSource {
	case "postgres":
		db, err := catalog.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		source := catalog.NewPostgresSource(db)
		if err := source.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return source, func() { _ = db.Close() }, nil
	case "file", "":
		return catalog.NewFileSource(cfg.CatalogPath), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown catalog source %q", cfg.CatalogSource)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
