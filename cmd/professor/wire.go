package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Strob0t/professor/internal/adapter/fragmentfs"
	"github.com/Strob0t/professor/internal/adapter/litellm"
	"github.com/Strob0t/professor/internal/adapter/mcp"
	pnats "github.com/Strob0t/professor/internal/adapter/nats"
	"github.com/Strob0t/professor/internal/adapter/natskv"
	potel "github.com/Strob0t/professor/internal/adapter/otel"
	"github.com/Strob0t/professor/internal/adapter/ristretto"
	"github.com/Strob0t/professor/internal/adapter/scraper"
	"github.com/Strob0t/professor/internal/adapter/serper"
	"github.com/Strob0t/professor/internal/adapter/tiered"
	"github.com/Strob0t/professor/internal/adapter/ws"
	"github.com/Strob0t/professor/internal/config"
	"github.com/Strob0t/professor/internal/port/broadcast"
	"github.com/Strob0t/professor/internal/port/cache"
	"github.com/Strob0t/professor/internal/resilience"
	"github.com/Strob0t/professor/internal/service"
	"github.com/Strob0t/professor/internal/workerpool"
)

const (
	pageBucket        = "professor_pages"
	idempotencyBucket = "professor_idempotency"
	idempotencyMB     = 8
	pageL1Expire      = 5 * time.Minute
	cleanupBudget     = 5 * time.Second
)

// app holds every long-lived component of a professor process.
type app struct {
	orch     *service.Orchestrator
	registry *service.Registry
	research *service.ResearchService
	pool     *workerpool.Pool
	hub      *ws.Hub
	queue    *pnats.Queue // nil without NATS
	mcp      *mcp.Server  // nil when disabled
	idem     cache.Cache  // replayed POST responses

	closers []func(context.Context)
}

// close releases components in reverse order of construction.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupBudget)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](ctx)
	}
}

func (a *app) onClose(fn func(context.Context)) {
	a.closers = append(a.closers, fn)
}

// buildApp wires configuration into a ready-to-run component graph. extra, when
// non-nil, receives every task status event in addition to the websocket hub.
func buildApp(ctx context.Context, cfg *config.Config, extra broadcast.Broadcaster) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	// --- Observability ---
	shutdownOTEL, err := potel.Setup(ctx, cfg.OTEL)
	if err != nil {
		return nil, fmt.Errorf("otel: %w", err)
	}
	a.onClose(func(ctx context.Context) {
		if err := shutdownOTEL(ctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	})
	metrics, err := potel.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---
	l1, err := ristretto.New(cfg.Cache.PageCacheMB)
	if err != nil {
		return nil, fmt.Errorf("page cache: %w", err)
	}
	a.onClose(func(context.Context) { l1.Close() })
	var pages cache.Cache = l1

	idemL1, err := ristretto.New(idempotencyMB)
	if err != nil {
		return nil, fmt.Errorf("idempotency cache: %w", err)
	}
	a.onClose(func(context.Context) { idemL1.Close() })
	a.idem = idemL1

	if cfg.NATS.URL != "" {
		a.queue, err = pnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return nil, fmt.Errorf("nats: %w", err)
		}
		q := a.queue
		a.onClose(func(context.Context) {
			if err := q.Drain(); err != nil {
				slog.Warn("nats drain", "error", err)
				_ = q.Close()
			}
		})

		l2, err := natskv.Open(ctx, q.JetStream(), pageBucket, cfg.Cache.PageTTL)
		if err != nil {
			return nil, fmt.Errorf("page cache kv: %w", err)
		}
		tieredPages := tiered.New(l1, l2, pageL1Expire)
		a.onClose(func(context.Context) {
			st := tieredPages.Stats()
			slog.Info("page cache stats", "l1_hits", st.L1Hits, "l2_hits", st.L2Hits, "misses", st.Misses)
		})
		pages = tieredPages

		idemL2, err := natskv.Open(ctx, q.JetStream(), idempotencyBucket, cfg.Research.Retention)
		if err != nil {
			return nil, fmt.Errorf("idempotency kv: %w", err)
		}
		a.idem = tiered.New(idemL1, idemL2, pageL1Expire)
	}

	// --- Collaborators ---
	searchClient := serper.NewClient(cfg.Search.URL, cfg.Search.APIKey, cfg.Research.MaxSources)
	searchClient.SetBreaker(resilience.NewBreaker("search", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	llmClient := litellm.NewClient(cfg.LLM.URL, cfg.LLM.APIKey, litellm.Config{
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	llmClient.SetBreaker(resilience.NewBreaker("llm", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	pageScraper := scraper.New(cfg.Research.FetchTimeout)
	pageScraper.SetCache(pages, cfg.Cache.PageTTL)

	fragments := fragmentfs.New(cfg.Research.FragmentDir)

	// --- Events ---
	a.hub = ws.NewHub(cfg.Server.CORSOrigin)
	a.onClose(func(context.Context) { a.hub.Close() })

	events := broadcast.Multi{a.hub}
	if a.queue != nil {
		events = append(events, pnats.NewEventPublisher(a.queue))
	}
	if extra != nil {
		events = append(events, extra)
	}

	// --- Services ---
	a.orch = service.NewOrchestrator(searchClient, pageScraper, llmClient, fragments, events, service.OrchestratorConfig{
		ContextBudget: cfg.Research.ContextBudget,
		KeepFragments: cfg.Research.KeepFragments,
	})
	a.orch.SetMetrics(metrics)

	a.registry = service.NewRegistry()
	a.pool = workerpool.New(cfg.Research.MaxConcurrent)
	a.research = service.NewResearchService(a.registry, a.orch, a.pool)

	if cfg.MCP.Enabled {
		a.mcp = mcp.NewServer(mcp.ServerConfig{Name: "professor", Version: version}, a.research)
	}

	return a, nil
}

// setDefaultLogger installs l as the slog default and returns the previous one.
func setDefaultLogger(l *slog.Logger) *slog.Logger {
	prev := slog.Default()
	slog.SetDefault(l)
	return prev
}
