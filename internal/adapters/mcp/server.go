package mcpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/legal-violation-analyzer/internal/core/domain"
	"github.com/kirillkom/legal-violation-analyzer/internal/core/ports"
)

const (
	ToolAnalyzeDocuments = "analyze_documents"
	defaultFilename      = "document.txt"
)

// NewServer exposes the analysis pipeline as a single MCP tool.
func NewServer(name, version string, analyzer ports.DocumentAnalyzer) *server.MCPServer {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(false))
	s.AddTool(analyzeDocumentsTool(), AnalyzeDocumentsHandler(analyzer))
	return s
}

func analyzeDocumentsTool() mcp.Tool {
	return mcp.NewTool(ToolAnalyzeDocuments,
		mcp.WithDescription("Check a tenancy document for relevance and list the violations it describes."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Document text to analyze."),
		),
		mcp.WithString("filename",
			mcp.Description("Name used for the staged upload; the extension selects the extractor."),
		),
	)
}

func AnalyzeDocumentsHandler(analyzer ports.DocumentAnalyzer) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := request.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filename := strings.TrimSpace(request.GetString("filename", defaultFilename))
		if filename == "" {
			filename = defaultFilename
		}

		requestID := uuid.NewString()
		result, err := analyzer.Analyze(ctx, domain.AnalysisRequest{
			ID: requestID,
			Documents: []domain.UploadedDocument{{
				Filename: filename,
				Content:  []byte(text),
			}},
		})
		if err != nil {
			slog.Warn("mcp_analysis_failed", "request_id", requestID, "error", err)
			return mcp.NewToolResultError(domain.ClientMessage(err)), nil
		}

		violations := result.Violations
		if violations == nil {
			violations = []domain.Violation{}
		}
		payload, err := json.Marshal(map[string]any{"violations": violations})
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}
