package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/legal-violation-analyzer/internal/core/domain"
	"github.com/kirillkom/legal-violation-analyzer/internal/infrastructure/llm/prompts"
	"github.com/kirillkom/legal-violation-analyzer/internal/infrastructure/resilience"
)

type capturedGenerate struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options"`
}

func newGenerateServer(t *testing.T, response string, captured *capturedGenerate) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"response": response})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClassifierSendsRelevancePromptAndReadsLabel(t *testing.T) {
	var captured capturedGenerate
	server := newGenerateServer(t, "  Relevant\n", &captured)

	client := New(server.URL, Options{ClassifyModel: "cls", GenModel: "gen"})
	result, err := NewClassifier(client, prompts.DefaultTemplates()).CheckRelevance(context.Background(), []string{"lease text", "notice text"})
	if err != nil {
		t.Fatalf("CheckRelevance() error = %v", err)
	}
	if !result.IsRelevant || result.Label != "Relevant" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if captured.Model != "cls" || captured.Stream {
		t.Fatalf("unexpected request: %+v", captured)
	}
	if !strings.HasSuffix(captured.Prompt, "Documents:\nlease text\n\nnotice text") {
		t.Fatalf("unexpected prompt: %q", captured.Prompt)
	}
}

func TestClassifierRejectsEmptyLabel(t *testing.T) {
	server := newGenerateServer(t, "   ", nil)

	client := New(server.URL, Options{GenModel: "gen"})
	_, err := NewClassifier(client, prompts.Templates{}).CheckRelevance(context.Background(), []string{"x"})
	if !domain.IsKind(err, domain.ErrClassification) {
		t.Fatalf("expected ErrClassification, got %v", err)
	}
}

func TestGeneratorBoundsOutputAndTrims(t *testing.T) {
	var captured capturedGenerate
	server := newGenerateServer(t, "\n Clause: A\nDescription: B \n", &captured)

	client := New(server.URL, Options{GenModel: "gen"})
	text, err := NewGenerator(client, prompts.DefaultTemplates(), 0).AnalyzeViolations(context.Background(), []string{"doc"})
	if err != nil {
		t.Fatalf("AnalyzeViolations() error = %v", err)
	}
	if text != "Clause: A\nDescription: B" {
		t.Fatalf("expected trimmed text, got %q", text)
	}
	if got, _ := captured.Options["num_predict"].(float64); got != 1500 {
		t.Fatalf("expected num_predict 1500, got %v", captured.Options["num_predict"])
	}
	if captured.Model != "gen" {
		t.Fatalf("expected generation model, got %q", captured.Model)
	}
}

func TestGeneratorIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, Options{GenModel: "gen"})
	_, err := NewGenerator(client, prompts.DefaultTemplates(), 100).AnalyzeViolations(context.Background(), []string{"doc"})
	if !domain.IsKind(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected 502 to be marked temporary, got %v", err)
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestGeneratorMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := New(server.URL, Options{GenModel: "gen"})
	_, err := NewGenerator(client, prompts.DefaultTemplates(), 100).AnalyzeViolations(context.Background(), []string{"doc"})
	if !domain.IsKind(err, domain.ErrGeneration) || domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected permanent ErrGeneration, got %v", err)
	}
}

func TestClassifierTimesOutThroughExecutor(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	executor := resilience.NewExecutor(resilience.Config{AttemptTimeout: 30 * time.Millisecond})
	client := New(server.URL, Options{GenModel: "gen", Executor: executor})
	_, err := NewClassifier(client, prompts.DefaultTemplates()).CheckRelevance(context.Background(), []string{"doc"})
	if !domain.IsKind(err, domain.ErrClassification) {
		t.Fatalf("expected ErrClassification on timeout, got %v", err)
	}
}
