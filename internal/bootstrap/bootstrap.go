package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/legal-violation-analyzer/internal/config"
	"github.com/kirillkom/legal-violation-analyzer/internal/core/ports"
	"github.com/kirillkom/legal-violation-analyzer/internal/core/usecase"
	"github.com/kirillkom/legal-violation-analyzer/internal/infrastructure/extractor/multiformat"
	"github.com/kirillkom/legal-violation-analyzer/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/legal-violation-analyzer/internal/infrastructure/llm/openai"
	"github.com/kirillkom/legal-violation-analyzer/internal/infrastructure/llm/prompts"
	"github.com/kirillkom/legal-violation-analyzer/internal/infrastructure/queue/nats"
	"github.com/kirillkom/legal-violation-analyzer/internal/infrastructure/resilience"
	"github.com/kirillkom/legal-violation-analyzer/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/legal-violation-analyzer/internal/observability/metrics"
)

const publishTimeout = 5 * time.Second

type App struct {
	Config   config.Config
	Analyzer ports.DocumentAnalyzer

	closeFn func()
}

// New wires the analysis pipeline. httpMetrics may be nil for binaries that do
// not expose metrics.
func New(_ context.Context, cfg config.Config, httpMetrics *metrics.HTTPServerMetrics) (*App, error) {
	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init upload storage: %w", err)
	}
	extractor := multiformat.NewExtractor(storage)

	llmExecutor := resilience.NewExecutor(llmResilienceConfig(cfg))
	if httpMetrics != nil {
		llmExecutor.WithObserver(httpMetrics.ObserveExternalCall)
	}

	relevance, analyzer, err := newModelClients(cfg, llmExecutor)
	if err != nil {
		return nil, err
	}

	var (
		publisher ports.EventPublisher
		closeFn   = func() {}
	)
	if strings.TrimSpace(cfg.NATSURL) != "" {
		natsConfig := resilience.DefaultConfig()
		natsConfig.AttemptTimeout = publishTimeout
		natsExecutor := resilience.NewExecutor(natsConfig)
		if httpMetrics != nil {
			natsExecutor.WithObserver(httpMetrics.ObserveExternalCall)
		}

		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: natsExecutor,
		})
		if err != nil {
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		publisher = queue
		closeFn = queue.Close
	}

	parser := usecase.NewViolationParser(usecase.ParseModeFromString(cfg.ParseMode))
	analyzeUC := usecase.NewAnalyzeDocumentsUseCase(storage, extractor, relevance, analyzer, parser, publisher)

	slog.Info("pipeline_ready",
		"llm_provider", cfg.LLMProvider,
		"parse_mode", string(parser.Mode()),
		"storage_path", storage.BasePath(),
		"events_enabled", publisher != nil,
	)

	return &App{
		Config:   cfg,
		Analyzer: analyzeUC,
		closeFn:  closeFn,
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func llmResilienceConfig(cfg config.Config) resilience.Config {
	out := resilience.DefaultConfig()
	if cfg.LLMTimeoutSeconds > 0 {
		out.AttemptTimeout = time.Duration(cfg.LLMTimeoutSeconds) * time.Second
	}
	if cfg.LLMRetryMaxAttempts > 0 {
		out.RetryMaxAttempts = cfg.LLMRetryMaxAttempts
	}
	out.BreakerEnabled = cfg.LLMBreakerEnabled
	return out
}

func newModelClients(cfg config.Config, executor *resilience.Executor) (ports.RelevanceClassifier, ports.ViolationAnalyzer, error) {
	templates := prompts.Templates{
		Relevance:  cfg.Prompts.Relevance,
		Violations: cfg.Prompts.Violations,
	}.WithDefaults()

	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case "", "ollama":
		client := ollama.New(cfg.OllamaURL, ollama.Options{
			ClassifyModel: cfg.OllamaClassifyModel,
			GenModel:      cfg.OllamaGenModel,
			Timeout:       time.Duration(cfg.LLMTimeoutSeconds) * time.Second,
			Executor:      executor,
		})
		return ollama.NewClassifier(client, templates), ollama.NewGenerator(client, templates, cfg.GenerationMaxTokens), nil
	case "openai":
		classify, generate, err := openai.NewModels(openai.Config{
			BaseURL:       cfg.OpenAIBaseURL,
			APIKey:        cfg.OpenAIAPIKey,
			ClassifyModel: cfg.OpenAIClassifyModel,
			GenModel:      cfg.OpenAIGenModel,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init openai models: %w", err)
		}
		return openai.NewClassifier(classify, templates, executor),
			openai.NewGenerator(generate, templates, cfg.GenerationMaxTokens, executor), nil
	default:
		return nil, nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
}
