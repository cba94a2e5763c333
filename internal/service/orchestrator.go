package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	potel "github.com/Strob0t/professor/internal/adapter/otel"
	"github.com/Strob0t/professor/internal/domain"
	"github.com/Strob0t/professor/internal/domain/research"
	"github.com/Strob0t/professor/internal/logger"
	"github.com/Strob0t/professor/internal/port/broadcast"
	"github.com/Strob0t/professor/internal/port/fragment"
	"github.com/Strob0t/professor/internal/port/llm"
	"github.com/Strob0t/professor/internal/port/scraper"
	"github.com/Strob0t/professor/internal/port/search"
)

// Pipeline step descriptions shown to pollers.
const (
	stepSearching  = "Searching web sources"
	stepScraping   = "Scraping content"
	stepProcessing = "Processing data"
	stepGenerating = "Generating insights"
)

// OrchestratorConfig holds the tunables of a pipeline run.
type OrchestratorConfig struct {
	ContextBudget int
	KeepFragments bool
}

// Orchestrator drives one research task through search, scrape, combine and
// synthesis. It is the only writer of a task's lifecycle fields.
type Orchestrator struct {
	search    search.Provider
	scraper   scraper.Scraper
	llm       llm.Completer
	fragments fragment.Store
	hub       broadcast.Broadcaster
	metrics   *potel.Metrics
	cfg       OrchestratorConfig
	now       func() time.Time
}

// NewOrchestrator creates an Orchestrator with all collaborators.
func NewOrchestrator(
	searchProvider search.Provider,
	pageScraper scraper.Scraper,
	completer llm.Completer,
	fragments fragment.Store,
	hub broadcast.Broadcaster,
	cfg OrchestratorConfig,
) *Orchestrator {
	if hub == nil {
		hub = broadcast.Multi(nil)
	}
	return &Orchestrator{
		search:    searchProvider,
		scraper:   pageScraper,
		llm:       completer,
		fragments: fragments,
		hub:       hub,
		cfg:       cfg,
		now:       time.Now,
	}
}

// SetMetrics enables metric recording.
func (o *Orchestrator) SetMetrics(m *potel.Metrics) {
	o.metrics = m
}

// Run executes the pipeline for t. It never panics and never returns an error:
// every outcome is recorded on the task itself.
func (o *Orchestrator) Run(ctx context.Context, t *research.Task) {
	ctx = logger.WithTaskID(ctx, t.ID())
	ctx, span := potel.StartTaskSpan(ctx, t.ID(), t.Topic())
	defer span.End()

	if o.metrics != nil {
		o.metrics.TasksStarted.Add(ctx, 1)
	}
	slog.InfoContext(ctx, "research task started", "topic", t.Topic(), "style", t.Style())

	defer func() {
		if r := recover(); r != nil {
			o.fail(ctx, t, research.FailureFault, fmt.Sprintf("internal error: %v", r))
			slog.ErrorContext(ctx, "research pipeline panicked", "panic", r)
		}
		snap := t.Snapshot()
		if snap.Status == research.StatusError {
			span.SetStatus(codes.Error, snap.Error)
		}
		span.SetAttributes(attribute.String("task.status", string(snap.Status)))
	}()

	answer, err := o.pipeline(ctx, t)
	switch {
	case errors.Is(err, domain.ErrNoContent):
		o.fail(ctx, t, research.FailureNoContent, research.NoContentMessage)
		slog.InfoContext(ctx, "research task found no content")
	case err != nil:
		o.fail(ctx, t, research.FailureFault, err.Error())
		slog.ErrorContext(ctx, "research task failed", "error", err)
	default:
		o.complete(ctx, t, answer)
	}
}

func (o *Orchestrator) pipeline(ctx context.Context, t *research.Task) (string, error) {
	// 1. searching
	if err := o.advance(ctx, t, research.StatusSearching, stepSearching, 10); err != nil {
		return "", err
	}
	sctx, span := potel.StartStageSpan(ctx, string(research.StatusSearching))
	urls, err := o.search.Search(sctx, t.Topic())
	span.End()
	if err != nil {
		return "", fmt.Errorf("search: %w", err)
	}
	t.RecordSources(len(urls))
	if err := o.progress(ctx, t, 25); err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "sources found", "stage", research.StatusSearching, "count", len(urls))

	// 2. scraping
	if err := o.advance(ctx, t, research.StatusScraping, stepScraping, 25); err != nil {
		return "", err
	}
	location, err := o.fragments.Create(ctx, t.Topic())
	if err != nil {
		return "", fmt.Errorf("create fragment location: %w", err)
	}
	if !o.cfg.KeepFragments {
		defer func() {
			if err := o.fragments.Remove(context.WithoutCancel(ctx), location); err != nil {
				slog.WarnContext(ctx, "fragment cleanup failed", "location", location, "error", err)
			}
		}()
	}
	sctx, span = potel.StartStageSpan(ctx, string(research.StatusScraping))
	saved := o.scrapeAll(sctx, location, urls)
	span.End()
	if err := o.progress(ctx, t, 50); err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "sources scraped", "stage", research.StatusScraping, "saved", saved, "total", len(urls))

	// 3. processing
	if err := o.advance(ctx, t, research.StatusProcessing, stepProcessing, 50); err != nil {
		return "", err
	}
	sctx, span = potel.StartStageSpan(ctx, string(research.StatusProcessing))
	combined, ok, err := CombineFragments(sctx, o.fragments, location, o.cfg.ContextBudget)
	span.End()
	if err != nil {
		return "", fmt.Errorf("combine fragments: %w", err)
	}
	if err := o.progress(ctx, t, 75); err != nil {
		return "", err
	}
	if o.metrics != nil && ok {
		o.metrics.ContextChars.Record(ctx, int64(utf8.RuneCountInString(combined.Context)))
	}

	// 4. generating
	if err := o.advance(ctx, t, research.StatusGenerating, stepGenerating, 75); err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrNoContent
	}
	prompt := research.BuildPrompt(combined.Context, t.Topic(), t.Style(), t.IncludeSources(), o.now())
	t.RecordTokens(research.EstimateTokens(prompt))

	sctx, span = potel.StartStageSpan(ctx, string(research.StatusGenerating))
	completion, err := o.llm.Complete(sctx, prompt)
	span.End()
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	slog.InfoContext(ctx, "answer generated",
		"stage", research.StatusGenerating,
		"model", completion.Model,
		"prompt_tokens", completion.PromptTokens,
		"completion_tokens", completion.CompletionTokens,
	)
	return completion.Text, nil
}

// scrapeAll fetches every source one at a time and stores what it extracts.
// A failing source is logged and skipped. Returns the number of stored fragments.
func (o *Orchestrator) scrapeAll(ctx context.Context, location string, urls []string) int {
	saved := 0
	for i, url := range urls {
		if ctx.Err() != nil {
			break
		}
		fctx, span := potel.StartFetchSpan(ctx, url)
		page, err := o.scraper.Scrape(fctx, url)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.End()
			o.skipSource(ctx, url, err)
			continue
		}
		span.End()

		title := page.Title
		if title == "" {
			title = fmt.Sprintf("Article_%d", i+1)
		}
		_, err = o.fragments.Save(ctx, location, fragment.Fragment{
			Index:     i + 1,
			Title:     title,
			SourceURL: url,
			Text:      page.Text,
			ScrapedAt: o.now(),
		})
		if err != nil {
			o.skipSource(ctx, url, fmt.Errorf("save fragment: %w", err))
			continue
		}
		saved++
	}
	return saved
}

func (o *Orchestrator) skipSource(ctx context.Context, url string, err error) {
	slog.WarnContext(ctx, "skipping source", "stage", research.StatusScraping, "url", url, "error", err)
	if o.metrics != nil {
		o.metrics.SourcesSkipped.Add(ctx, 1)
	}
}

func (o *Orchestrator) advance(ctx context.Context, t *research.Task, status research.Status, step string, progress int) error {
	if err := t.Advance(status, step, progress); err != nil {
		return err
	}
	o.emit(ctx, t)
	return nil
}

func (o *Orchestrator) progress(ctx context.Context, t *research.Task, progress int) error {
	if err := t.SetProgress(progress); err != nil {
		return err
	}
	o.emit(ctx, t)
	return nil
}

func (o *Orchestrator) complete(ctx context.Context, t *research.Task, answer string) {
	elapsed := t.Age(o.now())
	if err := t.Complete(answer, elapsed); err != nil {
		slog.ErrorContext(ctx, "complete research task", "error", err)
		return
	}
	if o.metrics != nil {
		o.metrics.TasksCompleted.Add(ctx, 1)
		o.metrics.TaskDuration.Record(ctx, elapsed.Seconds(),
			metric.WithAttributes(attribute.String("status", string(research.StatusCompleted))))
	}
	slog.InfoContext(ctx, "research task completed", "processing_time", elapsed.Seconds())
	o.emit(ctx, t)
}

func (o *Orchestrator) fail(ctx context.Context, t *research.Task, kind research.FailureKind, msg string) {
	elapsed := t.Age(o.now())
	if err := t.Fail(kind, msg, elapsed); err != nil {
		return
	}
	if o.metrics != nil {
		attrs := metric.WithAttributes(attribute.String("error_kind", string(kind)))
		o.metrics.TasksFailed.Add(ctx, 1, attrs)
		o.metrics.TaskDuration.Record(ctx, elapsed.Seconds(),
			metric.WithAttributes(attribute.String("status", string(research.StatusError))))
	}
	o.emit(ctx, t)
}

func (o *Orchestrator) emit(ctx context.Context, t *research.Task) {
	snap := t.Snapshot()
	o.hub.BroadcastEvent(ctx, broadcast.EventTaskStatus, broadcast.TaskStatusEvent{
		TaskID:      snap.TaskID,
		Topic:       snap.Topic,
		Status:      string(snap.Status),
		Progress:    snap.Progress,
		CurrentStep: snap.CurrentStep,
		Error:       snap.Error,
		ErrorKind:   string(snap.ErrorKind),
	})
}
