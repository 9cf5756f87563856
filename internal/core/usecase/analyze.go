package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/legal-violation-analyzer/internal/core/domain"
	"github.com/kirillkom/legal-violation-analyzer/internal/core/ports"
)

type AnalyzeDocumentsUseCase struct {
	storage   ports.UploadStorage
	extractor ports.TextExtractor
	relevance ports.RelevanceClassifier
	analyzer  ports.ViolationAnalyzer
	parser    ports.ViolationParser
	publisher ports.EventPublisher
	now       func() time.Time
}

// NewAnalyzeDocumentsUseCase wires the pipeline. publisher may be nil.
func NewAnalyzeDocumentsUseCase(
	storage ports.UploadStorage,
	extractor ports.TextExtractor,
	relevance ports.RelevanceClassifier,
	analyzer ports.ViolationAnalyzer,
	parser ports.ViolationParser,
	publisher ports.EventPublisher,
) *AnalyzeDocumentsUseCase {
	if parser == nil {
		parser = NewViolationParser(ParseModeStrict)
	}
	return &AnalyzeDocumentsUseCase{
		storage:   storage,
		extractor: extractor,
		relevance: relevance,
		analyzer:  analyzer,
		parser:    parser,
		publisher: publisher,
		now:       time.Now,
	}
}

func (uc *AnalyzeDocumentsUseCase) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	if len(req.Documents) == 0 {
		return nil, domain.ErrNoFiles
	}
	requestID := strings.TrimSpace(req.ID)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	texts, err := uc.extractAll(ctx, requestID, req.Documents)
	if err != nil {
		return nil, err
	}

	relevance, err := uc.checkRelevance(ctx, texts)
	if err != nil {
		return nil, err
	}
	if !relevance.IsRelevant {
		return nil, domain.WrapError(domain.ErrNotRelevant, "check relevance", fmt.Errorf("label=%q", relevance.Label))
	}

	generated, err := uc.generate(ctx, texts)
	if err != nil {
		return nil, err
	}

	result := &domain.AnalysisResult{
		RequestID:  requestID,
		Documents:  len(texts),
		Violations: uc.parser.Parse(generated),
	}
	uc.publish(ctx, result)
	return result, nil
}

// extractAll saves and extracts every upload in order; the first failure aborts the request.
func (uc *AnalyzeDocumentsUseCase) extractAll(ctx context.Context, requestID string, docs []domain.UploadedDocument) ([]string, error) {
	texts := make([]string, 0, len(docs))
	for idx, doc := range docs {
		stored, err := uc.store(ctx, requestID, doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", idx+1, err)
		}

		text, err := uc.extractor.Extract(ctx, stored)
		if err != nil {
			return nil, ensureKind(domain.ErrExtraction, fmt.Sprintf("extract document %d (%s)", idx+1, stored.Filename), err)
		}
		texts = append(texts, text)
	}
	return texts, nil
}

func (uc *AnalyzeDocumentsUseCase) store(ctx context.Context, requestID string, doc domain.UploadedDocument) (domain.StoredDocument, error) {
	filename := SanitizeFilename(doc.Filename)
	key := path.Join(requestID, filename)
	if err := uc.storage.Save(ctx, key, bytes.NewReader(doc.Content)); err != nil {
		return domain.StoredDocument{}, fmt.Errorf("save upload: %w", err)
	}
	return domain.StoredDocument{
		Filename:    filename,
		ContentType: doc.ContentType,
		StorageKey:  key,
	}, nil
}

func (uc *AnalyzeDocumentsUseCase) checkRelevance(ctx context.Context, texts []string) (domain.RelevanceResult, error) {
	result, err := uc.relevance.CheckRelevance(ctx, texts)
	if err != nil {
		return domain.RelevanceResult{}, ensureKind(domain.ErrClassification, "check relevance", err)
	}
	return result, nil
}

func (uc *AnalyzeDocumentsUseCase) generate(ctx context.Context, texts []string) (string, error) {
	generated, err := uc.analyzer.AnalyzeViolations(ctx, texts)
	if err != nil {
		return "", ensureKind(domain.ErrGeneration, "analyze violations", err)
	}
	return generated, nil
}

func (uc *AnalyzeDocumentsUseCase) publish(ctx context.Context, result *domain.AnalysisResult) {
	if uc.publisher == nil {
		return
	}
	event := domain.AnalysisCompletedEvent{
		RequestID:   result.RequestID,
		Documents:   result.Documents,
		Violations:  len(result.Violations),
		CompletedAt: uc.now().UTC(),
	}
	if err := uc.publisher.PublishAnalysisCompleted(ctx, event); err != nil {
		slog.Warn("analysis_event_publish_failed", "request_id", result.RequestID, "error", err)
	}
}

func ensureKind(kind error, operation string, err error) error {
	if domain.IsKind(err, kind) {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return domain.WrapError(kind, operation, err)
}
