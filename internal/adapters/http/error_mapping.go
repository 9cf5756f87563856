package httpadapter

import (
	"net/http"

	"github.com/kirillkom/legal-violation-analyzer/internal/core/domain"
	"github.com/kirillkom/legal-violation-analyzer/internal/observability/metrics"
)

type errorResponse struct {
	status  int
	message string
	outcome string
}

func mapAnalysisError(err error) errorResponse {
	message := domain.ClientMessage(err)
	switch {
	case domain.IsKind(err, domain.ErrNoFiles):
		return errorResponse{http.StatusBadRequest, message, metrics.AnalysisNoFiles}
	case domain.IsKind(err, domain.ErrNotRelevant):
		return errorResponse{http.StatusBadRequest, message, metrics.AnalysisNotRelevant}
	default:
		return errorResponse{http.StatusInternalServerError, message, metrics.AnalysisError}
	}
}
