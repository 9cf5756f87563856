// Package openai talks to any OpenAI-compatible endpoint through langchaingo.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"github.com/kirillkom/legal-violation-analyzer/internal/core/domain"
	"github.com/kirillkom/legal-violation-analyzer/internal/infrastructure/llm/prompts"
	"github.com/kirillkom/legal-violation-analyzer/internal/infrastructure/resilience"
)

const (
	defaultGenerationMaxTokens = 1500
	labelMaxTokens             = 8
)

type Config struct {
	BaseURL       string
	APIKey        string
	ClassifyModel string
	GenModel      string
}

// NewModels builds one langchaingo model per role. The classify model falls back
// to the generation model when unset.
func NewModels(cfg Config) (classify llms.Model, generate llms.Model, err error) {
	if strings.TrimSpace(cfg.GenModel) == "" {
		return nil, nil, fmt.Errorf("openai: generation model is required")
	}
	classifyModel := cfg.ClassifyModel
	if classifyModel == "" {
		classifyModel = cfg.GenModel
	}

	generate, err = newModel(cfg, cfg.GenModel)
	if err != nil {
		return nil, nil, err
	}
	classify, err = newModel(cfg, classifyModel)
	if err != nil {
		return nil, nil, err
	}
	return classify, generate, nil
}

func newModel(cfg Config, model string) (llms.Model, error) {
	opts := []lcopenai.Option{
		lcopenai.WithModel(model),
		lcopenai.WithToken(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("openai: init model %s: %w", model, err)
	}
	return llm, nil
}

type caller struct {
	model    llms.Model
	executor *resilience.Executor
}

func (c caller) complete(ctx context.Context, operation, prompt string, maxTokens int) (string, error) {
	var out string
	call := func(callCtx context.Context) error {
		text, err := llms.GenerateFromSinglePrompt(callCtx, c.model, prompt,
			llms.WithMaxTokens(maxTokens),
			llms.WithTemperature(0),
		)
		if err != nil {
			return err
		}
		out = text
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "openai."+operation, call, classifyError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		if resilience.IsCircuitOpen(err) {
			return "", domain.WrapError(domain.ErrTemporary, "openai "+operation, err)
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func classifyError(err error) resilience.ErrorClassification {
	if errors.Is(err, context.Canceled) {
		return resilience.ErrorClassification{}
	}
	return resilience.ErrorClassification{RecordFailure: true}
}

type Classifier struct {
	caller    caller
	templates prompts.Templates
}

func NewClassifier(model llms.Model, templates prompts.Templates, executor *resilience.Executor) *Classifier {
	return &Classifier{
		caller:    caller{model: model, executor: executor},
		templates: templates.WithDefaults(),
	}
}

func (c *Classifier) CheckRelevance(ctx context.Context, texts []string) (domain.RelevanceResult, error) {
	label, err := c.caller.complete(ctx, "classify", c.templates.RelevancePrompt(texts), labelMaxTokens)
	if err != nil {
		return domain.RelevanceResult{}, domain.WrapError(domain.ErrClassification, "openai classify", err)
	}
	if label == "" {
		return domain.RelevanceResult{}, domain.WrapError(domain.ErrClassification, "openai classify", errors.New("empty label"))
	}
	return domain.RelevanceFromLabel(label), nil
}

type Generator struct {
	caller    caller
	templates prompts.Templates
	maxTokens int
}

func NewGenerator(model llms.Model, templates prompts.Templates, maxTokens int, executor *resilience.Executor) *Generator {
	if maxTokens <= 0 {
		maxTokens = defaultGenerationMaxTokens
	}
	return &Generator{
		caller:    caller{model: model, executor: executor},
		templates: templates.WithDefaults(),
		maxTokens: maxTokens,
	}
}

func (g *Generator) AnalyzeViolations(ctx context.Context, texts []string) (string, error) {
	text, err := g.caller.complete(ctx, "generate", g.templates.ViolationsPrompt(texts), g.maxTokens)
	if err != nil {
		return "", domain.WrapError(domain.ErrGeneration, "openai generate", err)
	}
	return text, nil
}
