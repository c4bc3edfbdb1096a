package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pitabwire/frame"
	"github.com/pitabwire/frame/config"
	"github.com/pitabwire/frame/datastore"
	"github.com/pitabwire/util"

	appconfig "github.com/antinvestor/reviewbot/apps/worker/config"
	"github.com/antinvestor/reviewbot/apps/worker/service/jobs"
	"github.com/antinvestor/reviewbot/internal/audit"
	"github.com/antinvestor/reviewbot/internal/forge"
	"github.com/antinvestor/reviewbot/internal/llmreview"
	"github.com/antinvestor/reviewbot/internal/orchestrator"
	"github.com/antinvestor/reviewbot/internal/queue"
	"github.com/antinvestor/reviewbot/internal/tools"
	"github.com/antinvestor/reviewbot/internal/vuln"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadWithOIDC[appconfig.WorkerConfig](ctx)
	if err != nil {
		util.Log(ctx).With("err", err).Error("could not process configs")
		return
	}

	if cfg.Name() == "" {
		cfg.ServiceName = "reviewbot_worker"
	}

	ctx, svc := frame.NewServiceWithContext(
		ctx,
		frame.WithConfig(&cfg),
		frame.WithDatastore(),
	)
	defer svc.Stop(ctx)
	log := svc.Log(ctx)

	dbPool := svc.DatastoreManager().GetPool(ctx, datastore.DefaultPoolName)
	auditStore, err := audit.NewStore(ctx, dbPool)
	if err != nil {
		log.WithError(err).Fatal("could not initialize review run audit store")
	}

	forgeClient, err := forge.NewClient(forge.Config{
		AppID:          cfg.GitHubAppID,
		PrivateKeyPath: cfg.GitHubAppPrivateKeyPath,
	})
	if err != nil {
		log.WithError(err).Fatal("could not initialize github forge client")
	}

	harness := buildHarness(&cfg, log)
	defer harness.Release()

	workdirs := tools.NewWorkdirManager(cfg.WorkdirBasePath, time.Duration(cfg.WorkdirMaxAgeMinutes)*time.Minute)

	var scanner *vuln.Scanner
	if cfg.EnableOSVScan {
		scanner = vuln.NewScanner(vuln.Config{OSVURL: cfg.OSVURL})
	}

	llmProvider := buildLLMProvider(&cfg)

	orchCfg := orchestrator.DefaultConfig()
	orchCfg.ToolTimeout = time.Duration(cfg.ToolTimeoutSeconds) * time.Second
	orchCfg.Aggregator.ConfidenceThreshold = cfg.ConfidenceThreshold
	orchCfg.Aggregator.MaxInlineComments = cfg.MaxInlineComments
	orchCfg.Risk.Threshold = cfg.RiskThreshold

	orch := orchestrator.New(orchCfg, forgeClient, harness, workdirs, scanner, llmProvider)
	handler := jobs.NewHandler(orch, auditStore)

	jobQueue, err := queue.New(queue.Config{
		Backend:           queue.Backend(cfg.QueueBackend),
		Name:              cfg.QueueReviewJobName,
		RedisURL:          cfg.BrokerURL,
		MemoryConcurrency: cfg.WorkerConcurrency,
		Broker: queue.BrokerConfig{
			Concurrency: cfg.WorkerConcurrency,
		},
	})
	if err != nil {
		log.WithError(err).Fatal("could not initialize review job queue")
	}
	defer func() {
		if cerr := jobQueue.Close(); cerr != nil {
			log.WithError(cerr).Warn("failed to close review job queue")
		}
	}()

	go func() {
		if perr := jobQueue.Process(ctx, handler.Handle); perr != nil {
			log.WithError(perr).Error("review job queue processing stopped")
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"worker"}`))
	})
	mux.HandleFunc("/jobs/{id}", jobsHandler(auditStore))

	svc.Init(ctx, frame.WithHTTPHandler(mux))

	log.Info("starting review worker service")
	err = svc.Run(ctx, "")
	if err != nil {
		log.WithError(err).Fatal("could not run server")
	}
}

// buildHarness wires every static-tool runner against either a Docker
// sandbox or a direct host-exec sandbox, falling back to host-exec
// automatically when the Docker daemon is unreachable so the worker still
// starts in environments without Docker.
func buildHarness(cfg *appconfig.WorkerConfig, log *util.LogEntry) *tools.Harness {
	var sandbox tools.Sandbox = tools.ExecSandbox{}

	if cfg.UseDockerSandbox {
		dockerSandbox, err := tools.NewDockerSandbox()
		if err != nil {
			log.WithError(err).Warn("docker sandbox unavailable, falling back to host exec")
		} else {
			sandbox = dockerSandbox
		}
	}

	runners := []tools.ToolRunner{
		tools.NewGoVetRunner(sandbox),
		tools.NewPatternRunner(),
	}
	if cfg.EnableESLint {
		runners = append(runners, tools.NewESLintRunner(sandbox))
	}
	if cfg.EnableSemgrep {
		runners = append(runners, tools.NewSemgrepRunner(sandbox, cfg.SemgrepRulesPath, cfg.SemgrepTimeoutSeconds))
	}
	if cfg.EnableRuff {
		runners = append(runners, tools.NewRuffRunner(sandbox))
	}
	if cfg.EnableBandit {
		runners = append(runners, tools.NewBanditRunner(sandbox))
	}
	if cfg.EnableGosec {
		runners = append(runners, tools.NewGosecRunner(sandbox))
	}
	if cfg.EnableStaticcheck {
		runners = append(runners, tools.NewStaticcheckRunner(sandbox))
	}

	harness, err := tools.NewHarness(runners, cfg.ToolPoolSize)
	if err != nil {
		log.WithError(err).Fatal("could not build static-tool harness")
	}

	return harness
}

// buildLLMProvider selects the configured completer backend. An unknown
// or unconfigured provider returns nil, which disables the LLM analysis
// step entirely rather than failing the worker at startup.
func buildLLMProvider(cfg *appconfig.WorkerConfig) llmreview.LLMProvider {
	timeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second

	switch cfg.DefaultLLMProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil
		}
		return llmreview.NewProvider(llmreview.NewAnthropicCompleter(cfg.AnthropicAPIKey, cfg.AnthropicModel, timeout), cfg.LLMMaxTokens)
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil
		}
		return llmreview.NewProvider(llmreview.NewOpenAICompleter(cfg.OpenAIAPIKey, "", cfg.OpenAIModel, timeout), cfg.LLMMaxTokens)
	case "local":
		if cfg.LocalLLMBaseURL == "" {
			return nil
		}
		return llmreview.NewProvider(llmreview.NewLocalCompleter(cfg.LocalLLMBaseURL, cfg.LocalLLMModel, cfg.LocalLLMAPIKey, timeout), cfg.LLMMaxTokens)
	default:
		return nil
	}
}

// jobsHandler serves the persisted ReviewRun audit record for one job,
// bypassing webhook signature verification since it isn't a webhook
// endpoint.
func jobsHandler(store *audit.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		run, err := store.GetByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, audit.ErrNotFound) {
				http.Error(w, "review run not found", http.StatusNotFound)
				return
			}
			http.Error(w, "could not load review run", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(run)
	}
}
