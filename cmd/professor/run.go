package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Strob0t/professor/internal/config"
	"github.com/Strob0t/professor/internal/domain/research"
	"github.com/Strob0t/professor/internal/logger"
	"github.com/Strob0t/professor/internal/port/broadcast"
)

// errTaskFailed is returned when the pipeline ends in the error state.
var errTaskFailed = errors.New("research task failed")

type runFlags struct {
	style     string
	noSources bool
	budget    int
}

func newRunCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run <topic>",
		Short: "Research a topic once and print the answer",
		Example: `  professor run "How do quantum computers work?"
  professor run --style Concise --no-sources "Rust ownership"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g, func(c *config.CLIFlags) {
				if cmd.Flags().Changed("budget") {
					c.Budget = &f.budget
				}
			})
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			req := research.Request{
				Topic:          strings.Join(args, " "),
				Style:          research.Style(f.style),
				IncludeSources: !f.noSources,
			}
			return runOnce(cmd.Context(), cfg, req, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&f.style, "style", string(research.StyleComprehensive),
		"response style: Comprehensive, Concise, Technical or Beginner-friendly")
	cmd.Flags().BoolVar(&f.noSources, "no-sources", false, "do not ask the model to cite sources")
	cmd.Flags().IntVar(&f.budget, "budget", research.DefaultContextBudget, "maximum characters of source text in the context")
	return cmd
}

// progressPrinter writes each status transition of one task as a line.
type progressPrinter struct {
	mu     sync.Mutex
	w      io.Writer
	taskID string
}

func (p *progressPrinter) BroadcastEvent(_ context.Context, eventType string, payload any) {
	ev, ok := payload.(broadcast.TaskStatusEvent)
	if eventType != broadcast.EventTaskStatus || !ok || ev.TaskID != p.taskID {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	step := ev.CurrentStep
	if ev.Status == string(research.StatusCompleted) || ev.Status == string(research.StatusError) {
		step = ev.Status
	}
	fmt.Fprintf(p.w, "[%3d%%] %s\n", ev.Progress, step)
}

func runOnce(parent context.Context, cfg *config.Config, req research.Request, stdout, stderr io.Writer) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logCfg := cfg.Logging
	if logCfg.Level == "info" {
		logCfg.Level = "warn"
	}
	log, closeLog := logger.New(logCfg)
	defer closeLog.Close()
	prev := setDefaultLogger(log)
	defer setDefaultLogger(prev)

	for _, w := range cfg.Warnings() {
		fmt.Fprintln(stderr, "warning:", w)
	}

	task := research.NewTask(uuid.NewString(), req, time.Now())
	printer := &progressPrinter{w: stderr, taskID: task.ID()}

	a, err := buildApp(ctx, cfg, printer)
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Fprintf(stderr, "Researching %q (%s)\n", req.Topic, req.Style)
	a.orch.Run(ctx, task)

	snap := task.Snapshot()
	if snap.Status != research.StatusCompleted {
		fmt.Fprintln(stderr, "error:", snap.Error)
		return errTaskFailed
	}

	fmt.Fprintln(stdout, snap.Result)
	fmt.Fprintf(stderr, "\nsources: %d  tokens: ~%d  time: %.1fs\n",
		snap.Metadata.SourcesCount, snap.Metadata.TokensUsed, snap.Metadata.ProcessingTime)
	return nil
}
