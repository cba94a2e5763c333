package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/Strob0t/professor/internal/config"
	"github.com/Strob0t/professor/internal/domain"
	"github.com/Strob0t/professor/internal/domain/research"
	"github.com/Strob0t/professor/internal/port/broadcast"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "run"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("subcommand %q not registered: %v", name, err)
		}
	}
	for _, flag := range []string{"config", "log-level", "nats-url"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
}

func TestRunRequiresTopic(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"run"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	if err := root.Execute(); err == nil {
		t.Fatal("expected an error without a topic")
	}
}

func TestLoadConfigAppliesChangedFlags(t *testing.T) {
	t.Setenv("PROFESSOR_LOG_LEVEL", "")
	t.Setenv("PROFESSOR_CONTEXT_BUDGET", "")
	t.Setenv("NATS_URL", "")

	tests := []struct {
		name       string
		args       []string
		wantLevel  string
		wantBudget int
		wantNATS   string
	}{
		{"defaults", nil, "info", 7500, ""},
		{"overrides", []string{"--log-level", "debug", "--budget", "1200", "--nats-url", "nats://q:4222"}, "debug", 1200, "nats://q:4222"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &globalFlags{}
			root := newRootCmd()
			var got *config.Config

			run, _, err := root.Find([]string{"run"})
			if err != nil {
				t.Fatal(err)
			}
			budget := run.Flags().Lookup("budget")
			run.RunE = func(cmd *cobra.Command, _ []string) error {
				g.configPath = filepath.Join(t.TempDir(), "none.yaml")
				g.logLevel = cmd.Flag("log-level").Value.String()
				g.natsURL = cmd.Flag("nats-url").Value.String()
				var err error
				got, err = loadConfig(cmd, g, func(f *config.CLIFlags) {
					if cmd.Flags().Changed("budget") {
						n, _ := strconv.Atoi(budget.Value.String())
						f.Budget = &n
					}
				})
				return err
			}

			root.SetArgs(append([]string{"run"}, append(tt.args, "topic")...))
			if err := root.Execute(); err != nil {
				t.Fatalf("execute: %v", err)
			}
			if got.Logging.Level != tt.wantLevel {
				t.Errorf("log level = %q, want %q", got.Logging.Level, tt.wantLevel)
			}
			if got.Research.ContextBudget != tt.wantBudget {
				t.Errorf("budget = %d, want %d", got.Research.ContextBudget, tt.wantBudget)
			}
			if got.NATS.URL != tt.wantNATS {
				t.Errorf("nats url = %q, want %q", got.NATS.URL, tt.wantNATS)
			}
		})
	}
}

func TestProgressPrinterFiltersByTask(t *testing.T) {
	var buf bytes.Buffer
	p := &progressPrinter{w: &buf, taskID: "t1"}
	ctx := context.Background()

	p.BroadcastEvent(ctx, broadcast.EventTaskStatus, broadcast.TaskStatusEvent{TaskID: "t1", Progress: 10, CurrentStep: "Searching web sources", Status: "searching"})
	p.BroadcastEvent(ctx, broadcast.EventTaskStatus, broadcast.TaskStatusEvent{TaskID: "other", Progress: 50, CurrentStep: "Processing data"})
	p.BroadcastEvent(ctx, "something.else", broadcast.TaskStatusEvent{TaskID: "t1", Progress: 75})
	p.BroadcastEvent(ctx, broadcast.EventTaskStatus, broadcast.TaskStatusEvent{TaskID: "t1", Progress: 100, Status: "completed"})

	want := "[ 10%] Searching web sources\n[100%] completed\n"
	if buf.String() != want {
		t.Fatalf("output = %q, want %q", buf.String(), want)
	}
}

// fakeUpstream serves a search endpoint, two pages and a chat completion endpoint.
func fakeUpstream(t *testing.T, links func(base string) []string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("GET /search", func(w http.ResponseWriter, _ *http.Request) {
		type organic struct {
			Link string `json:"link"`
		}
		var out struct {
			Organic []organic `json:"organic"`
		}
		for _, l := range links(srv.URL) {
			out.Organic = append(out.Organic, organic{Link: l})
		}
		_ = json.NewEncoder(w).Encode(out)
	})
	mux.HandleFunc("GET /page", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Qubits</title></head><body><article><p>Qubits hold superposition.</p></article></body></html>`))
	})
	mux.HandleFunc("POST /chat/completions", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"model":"test-model","choices":[{"message":{"role":"assistant","content":"Qubits explained."}}],"usage":{"prompt_tokens":12,"completion_tokens":3}}`))
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, base string) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Logging.Level = "error"
	cfg.Search.URL = base + "/search"
	cfg.Search.APIKey = "search-key"
	cfg.LLM.URL = base
	cfg.LLM.APIKey = "llm-key"
	cfg.Research.FragmentDir = t.TempDir()
	return &cfg
}

func TestRunOnceCompletes(t *testing.T) {
	srv := fakeUpstream(t, func(base string) []string {
		return []string{base + "/page", base + "/missing"}
	})
	var stdout, stderr bytes.Buffer

	req := research.Request{Topic: "Quantum Computing", Style: research.StyleConcise, IncludeSources: true}
	if err := runOnce(context.Background(), testConfig(t, srv.URL), req, &stdout, &stderr); err != nil {
		t.Fatalf("runOnce: %v\nstderr: %s", err, stderr.String())
	}

	if strings.TrimSpace(stdout.String()) != "Qubits explained." {
		t.Fatalf("stdout = %q", stdout.String())
	}
	for _, want := range []string{"Searching web sources", "Generating insights", "[100%] completed", "sources: 2"} {
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr.String())
		}
	}
}

func TestRunOnceNoContent(t *testing.T) {
	srv := fakeUpstream(t, func(string) []string { return nil })
	var stdout, stderr bytes.Buffer

	err := runOnce(context.Background(), testConfig(t, srv.URL), research.Request{Topic: "nothing"}, &stdout, &stderr)
	if !errors.Is(err, errTaskFailed) {
		t.Fatalf("expected errTaskFailed, got %v", err)
	}
	if !strings.Contains(stderr.String(), research.NoContentMessage) {
		t.Errorf("stderr missing failure reason:\n%s", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("unexpected stdout %q", stdout.String())
	}
}

func TestRunOnceRejectsBlankTopic(t *testing.T) {
	err := runOnce(context.Background(), testConfig(t, "http://127.0.0.1:1"), research.Request{Topic: "  "}, &bytes.Buffer{}, &bytes.Buffer{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
