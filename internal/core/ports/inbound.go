package ports

import (
	"context"

	"github.com/kirillkom/legal-violation-analyzer/internal/core/domain"
)

// DocumentAnalyzer is the inbound contract for the relevance + violation pipeline.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error)
}
