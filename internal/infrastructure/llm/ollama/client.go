package ollama

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/legal-violation-analyzer/internal/core/domain"
	"github.com/kirillkom/legal-violation-analyzer/internal/infrastructure/llm/prompts"
	"github.com/kirillkom/legal-violation-analyzer/internal/infrastructure/resilience"
)

const (
	defaultGenerationMaxTokens = 1500
	labelMaxTokens             = 8
)

type Options struct {
	ClassifyModel string
	GenModel      string
	Timeout       time.Duration
	Executor      *resilience.Executor
}

type Client struct {
	baseURL       string
	classifyModel string
	genModel      string
	httpClient    *http.Client
	executor      *resilience.Executor
}

func New(baseURL string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	classifyModel := options.ClassifyModel
	if classifyModel == "" {
		classifyModel = options.GenModel
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		classifyModel: classifyModel,
		genModel:      options.GenModel,
		httpClient:    &http.Client{Timeout: timeout},
		executor:      options.Executor,
	}
}

// Classifier asks the model for a single relevance label.
type Classifier struct {
	client    *Client
	templates prompts.Templates
}

func NewClassifier(client *Client, templates prompts.Templates) *Classifier {
	return &Classifier{client: client, templates: templates.WithDefaults()}
}

func (c *Classifier) CheckRelevance(ctx context.Context, texts []string) (domain.RelevanceResult, error) {
	label, err := c.client.generate(ctx, "classify", c.client.classifyModel, c.templates.RelevancePrompt(texts), labelMaxTokens)
	if err != nil {
		return domain.RelevanceResult{}, domain.WrapError(domain.ErrClassification, "ollama classify", err)
	}
	if label == "" {
		return domain.RelevanceResult{}, domain.WrapError(domain.ErrClassification, "ollama classify", errors.New("empty label"))
	}
	return domain.RelevanceFromLabel(label), nil
}

// Generator produces the free-form violation analysis.
type Generator struct {
	client    *Client
	templates prompts.Templates
	maxTokens int
}

func NewGenerator(client *Client, templates prompts.Templates, maxTokens int) *Generator {
	if maxTokens <= 0 {
		maxTokens = defaultGenerationMaxTokens
	}
	return &Generator{client: client, templates: templates.WithDefaults(), maxTokens: maxTokens}
}

func (g *Generator) AnalyzeViolations(ctx context.Context, texts []string) (string, error) {
	text, err := g.client.generate(ctx, "generate", g.client.genModel, g.templates.ViolationsPrompt(texts), g.maxTokens)
	if err != nil {
		return "", domain.WrapError(domain.ErrGeneration, "ollama generate", err)
	}
	return text, nil
}

func (c *Client) generate(ctx context.Context, operation, model, prompt string, maxTokens int) (string, error) {
	reqBody := map[string]any{
		"model":  model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"num_predict": maxTokens,
			"temperature": 0,
		},
	}

	var response struct {
		Response string `json:"response"`
	}
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/generate", reqBody, &response, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama."+operation, call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("ollama "+operation, err)
	}
	return strings.TrimSpace(response.Response), nil
}
