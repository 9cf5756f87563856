package ports

import (
	"context"
	"io"

	"github.com/kirillkom/legal-violation-analyzer/internal/core/domain"
)

// UploadStorage keeps uploaded files for the duration of processing.
type UploadStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// TextExtractor extracts plain text from a stored upload.
type TextExtractor interface {
	Extract(ctx context.Context, doc domain.StoredDocument) (string, error)
}

// RelevanceClassifier judges whether the concatenated texts belong to the legal domain.
type RelevanceClassifier interface {
	CheckRelevance(ctx context.Context, texts []string) (domain.RelevanceResult, error)
}

// ViolationAnalyzer returns free-form generated text listing violations.
type ViolationAnalyzer interface {
	AnalyzeViolations(ctx context.Context, texts []string) (string, error)
}

// ViolationParser turns generated text into ordered records.
type ViolationParser interface {
	Parse(text string) []domain.Violation
}

// EventPublisher announces completed analyses.
type EventPublisher interface {
	PublishAnalysisCompleted(ctx context.Context, event domain.AnalysisCompletedEvent) error
}
