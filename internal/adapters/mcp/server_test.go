package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/legal-violation-analyzer/internal/core/domain"
)

type analyzerFake struct {
	got    domain.AnalysisRequest
	result *domain.AnalysisResult
	err    error
}

func (f *analyzerFake) Analyze(_ context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func callTool(t *testing.T, analyzer *analyzerFake, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = ToolAnalyzeDocuments
	req.Params.Arguments = args

	result, err := AnalyzeDocumentsHandler(analyzer)(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if len(result.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(result.Content))
	}
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestAnalyzeDocumentsToolReturnsViolations(t *testing.T) {
	analyzer := &analyzerFake{result: &domain.AnalysisResult{
		Documents:  1,
		Violations: []domain.Violation{domain.NewViolation("Late Fee", "Tenant charged twice.")},
	}}

	result := callTool(t, analyzer, map[string]any{"text": "lease text"})

	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	want := `{"violations":[{"clause":"Late Fee","description":"Tenant charged twice."}]}`
	if got := resultText(t, result); got != want {
		t.Fatalf("unexpected payload:\n got %s\nwant %s", got, want)
	}
	if len(analyzer.got.Documents) != 1 || analyzer.got.Documents[0].Filename != "document.txt" {
		t.Fatalf("expected default filename, got %+v", analyzer.got.Documents)
	}
	if string(analyzer.got.Documents[0].Content) != "lease text" || analyzer.got.ID == "" {
		t.Fatalf("unexpected request: %+v", analyzer.got)
	}
}

func TestAnalyzeDocumentsToolUsesFilename(t *testing.T) {
	analyzer := &analyzerFake{result: &domain.AnalysisResult{Documents: 1}}

	result := callTool(t, analyzer, map[string]any{"text": "<p>lease</p>", "filename": "notice.html"})

	if got := resultText(t, result); got != `{"violations":[]}` {
		t.Fatalf("expected empty violations, got %s", got)
	}
	if analyzer.got.Documents[0].Filename != "notice.html" {
		t.Fatalf("expected filename to pass through, got %q", analyzer.got.Documents[0].Filename)
	}
}

func TestAnalyzeDocumentsToolRequiresText(t *testing.T) {
	analyzer := &analyzerFake{}

	result := callTool(t, analyzer, map[string]any{})

	if !result.IsError {
		t.Fatalf("expected tool error for missing text")
	}
	if analyzer.got.Documents != nil {
		t.Fatalf("analyzer must not run without text")
	}
}

func TestAnalyzeDocumentsToolMapsErrorsToClientMessages(t *testing.T) {
	analyzer := &analyzerFake{err: domain.WrapError(domain.ErrNotRelevant, "check relevance", errors.New("label"))}
	result := callTool(t, analyzer, map[string]any{"text": "cake recipe"})
	if !result.IsError || resultText(t, result) != domain.MessageNotRelevant {
		t.Fatalf("unexpected result: error=%v text=%q", result.IsError, resultText(t, result))
	}

	analyzer = &analyzerFake{err: domain.WrapError(domain.ErrGeneration, "generate", errors.New("connection refused"))}
	result = callTool(t, analyzer, map[string]any{"text": "lease"})
	if !result.IsError || resultText(t, result) != domain.MessageAnalysisFailed {
		t.Fatalf("unexpected result: error=%v text=%q", result.IsError, resultText(t, result))
	}
}

func TestNewServerListsTool(t *testing.T) {
	s := NewServer("legal-analyzer", "test", &analyzerFake{})

	response := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(response)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	if !strings.Contains(string(raw), `"name":"analyze_documents"`) {
		t.Fatalf("expected analyze_documents in tools/list, got %s", raw)
	}
}
