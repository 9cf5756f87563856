package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/kirillkom/legal-violation-analyzer/internal/core/domain"
)

type memoryStorageFake struct {
	files   map[string][]byte
	saveErr error
}

func newMemoryStorageFake() *memoryStorageFake {
	return &memoryStorageFake{files: map[string][]byte{}}
}

func (f *memoryStorageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.files[key] = raw
	return nil
}

func (f *memoryStorageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f.files[key]
	if !ok {
		return nil, fmt.Errorf("missing %s", key)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

// storageExtractorFake reads stored bytes back and fails on names listed in failOn.
type storageExtractorFake struct {
	storage *memoryStorageFake
	failOn  string
	calls   []domain.StoredDocument
}

func (f *storageExtractorFake) Extract(ctx context.Context, doc domain.StoredDocument) (string, error) {
	f.calls = append(f.calls, doc)
	if f.failOn != "" && doc.Filename == f.failOn {
		return "", domain.WrapError(domain.ErrExtraction, "pdf", errors.New("malformed PDF"))
	}
	reader, err := f.storage.Open(ctx, doc.StorageKey)
	if err != nil {
		return "", err
	}
	defer reader.Close()
	raw, err := io.ReadAll(reader)
	return string(raw), err
}

type relevanceFake struct {
	label string
	err   error
	calls [][]string
}

func (f *relevanceFake) CheckRelevance(_ context.Context, texts []string) (domain.RelevanceResult, error) {
	f.calls = append(f.calls, append([]string(nil), texts...))
	if f.err != nil {
		return domain.RelevanceResult{}, f.err
	}
	return domain.RelevanceFromLabel(f.label), nil
}

type analyzerFake struct {
	text  string
	err   error
	calls [][]string
}

func (f *analyzerFake) AnalyzeViolations(_ context.Context, texts []string) (string, error) {
	f.calls = append(f.calls, append([]string(nil), texts...))
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type publisherFake struct {
	events []domain.AnalysisCompletedEvent
	err    error
}

func (f *publisherFake) PublishAnalysisCompleted(_ context.Context, event domain.AnalysisCompletedEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type analyzeFixture struct {
	storage   *memoryStorageFake
	extractor *storageExtractorFake
	relevance *relevanceFake
	analyzer  *analyzerFake
	publisher *publisherFake
	uc        *AnalyzeDocumentsUseCase
}

func newAnalyzeFixture() *analyzeFixture {
	storage := newMemoryStorageFake()
	f := &analyzeFixture{
		storage:   storage,
		extractor: &storageExtractorFake{storage: storage},
		relevance: &relevanceFake{label: "Relevant"},
		analyzer:  &analyzerFake{text: "Clause: Late Fee\nDescription: Tenant charged twice.\n"},
		publisher: &publisherFake{},
	}
	f.uc = NewAnalyzeDocumentsUseCase(f.storage, f.extractor, f.relevance, f.analyzer, NewViolationParser(ParseModeStrict), f.publisher)
	return f
}

func twoDocs() []domain.UploadedDocument {
	return []domain.UploadedDocument{
		{Filename: "lease 1.txt", ContentType: "text/plain", Content: []byte("first lease")},
		{Filename: "addendum.txt", ContentType: "text/plain", Content: []byte("second addendum")},
	}
}

func TestAnalyzeWithoutDocumentsSkipsServices(t *testing.T) {
	f := newAnalyzeFixture()

	_, err := f.uc.Analyze(context.Background(), domain.AnalysisRequest{ID: "req-1"})
	if !domain.IsKind(err, domain.ErrNoFiles) {
		t.Fatalf("expected ErrNoFiles, got %v", err)
	}
	if len(f.relevance.calls) != 0 || len(f.analyzer.calls) != 0 || len(f.extractor.calls) != 0 {
		t.Fatalf("expected no collaborator calls")
	}
}

func TestAnalyzeReturnsViolationsInOrder(t *testing.T) {
	f := newAnalyzeFixture()

	result, err := f.uc.Analyze(context.Background(), domain.AnalysisRequest{ID: "req-1", Documents: twoDocs()})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.RequestID != "req-1" || result.Documents != 2 {
		t.Fatalf("unexpected result metadata: %+v", result)
	}
	if len(result.Violations) != 1 || result.Violations[0].ClauseText() != "Late Fee" {
		t.Fatalf("unexpected violations: %+v", result.Violations)
	}

	wantTexts := []string{"first lease", "second addendum"}
	for _, calls := range [][][]string{f.relevance.calls, f.analyzer.calls} {
		if len(calls) != 1 || strings.Join(calls[0], "|") != strings.Join(wantTexts, "|") {
			t.Fatalf("expected texts in upload order, got %v", calls)
		}
	}
	if _, ok := f.storage.files["req-1/lease_1.txt"]; !ok {
		t.Fatalf("expected sanitized key scoped by request id, got %v", f.storage.files)
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0].Violations != 1 {
		t.Fatalf("expected one completion event, got %+v", f.publisher.events)
	}
}

func TestAnalyzeGeneratesRequestIDWhenMissing(t *testing.T) {
	f := newAnalyzeFixture()

	result, err := f.uc.Analyze(context.Background(), domain.AnalysisRequest{Documents: twoDocs()[:1]})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.RequestID == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestAnalyzeNotRelevantSkipsAnalyzer(t *testing.T) {
	f := newAnalyzeFixture()
	f.relevance.label = "NEGATIVE"

	_, err := f.uc.Analyze(context.Background(), domain.AnalysisRequest{ID: "req-2", Documents: twoDocs()})
	if !domain.IsKind(err, domain.ErrNotRelevant) {
		t.Fatalf("expected ErrNotRelevant, got %v", err)
	}
	if len(f.analyzer.calls) != 0 {
		t.Fatalf("analyzer must not be called for irrelevant documents")
	}
	if len(f.publisher.events) != 0 {
		t.Fatalf("no event expected on failure")
	}
}

func TestAnalyzeExtractionFailureStopsPipeline(t *testing.T) {
	f := newAnalyzeFixture()
	f.extractor.failOn = "broken.pdf"
	docs := append(twoDocs(), domain.UploadedDocument{Filename: "broken.pdf", Content: []byte("not a pdf")})

	_, err := f.uc.Analyze(context.Background(), domain.AnalysisRequest{ID: "req-3", Documents: docs})
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	if !strings.Contains(err.Error(), "document 3") {
		t.Fatalf("expected failing document position in error, got %v", err)
	}
	if len(f.relevance.calls) != 0 {
		t.Fatalf("classifier must not run after extraction failure")
	}
}

func TestAnalyzeWrapsUntypedCollaboratorErrors(t *testing.T) {
	f := newAnalyzeFixture()
	f.relevance.err = errors.New("connection refused")

	_, err := f.uc.Analyze(context.Background(), domain.AnalysisRequest{ID: "req-4", Documents: twoDocs()})
	if !domain.IsKind(err, domain.ErrClassification) {
		t.Fatalf("expected ErrClassification, got %v", err)
	}

	f = newAnalyzeFixture()
	f.analyzer.err = errors.New("model crashed")
	_, err = f.uc.Analyze(context.Background(), domain.AnalysisRequest{ID: "req-5", Documents: twoDocs()})
	if !domain.IsKind(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestAnalyzeStorageFailureIsNotRelevanceError(t *testing.T) {
	f := newAnalyzeFixture()
	f.storage.saveErr = errors.New("disk full")

	_, err := f.uc.Analyze(context.Background(), domain.AnalysisRequest{ID: "req-6", Documents: twoDocs()})
	if err == nil || !strings.Contains(err.Error(), "save upload") {
		t.Fatalf("expected save error, got %v", err)
	}
	if domain.IsKind(err, domain.ErrNotRelevant) || domain.IsKind(err, domain.ErrNoFiles) {
		t.Fatalf("storage failure must map to a server error, got %v", err)
	}
}

func TestAnalyzePublishFailureDoesNotFailRequest(t *testing.T) {
	f := newAnalyzeFixture()
	f.publisher.err = errors.New("nats down")

	result, err := f.uc.Analyze(context.Background(), domain.AnalysisRequest{ID: "req-7", Documents: twoDocs()})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(result.Violations) != 1 {
		t.Fatalf("unexpected violations: %+v", result.Violations)
	}
}

func TestAnalyzeIsDeterministicWithFixedServices(t *testing.T) {
	f := newAnalyzeFixture()
	f.analyzer.text = "Clause: A\nClause: B\nDescription: only B has this\n"

	first, err := f.uc.Analyze(context.Background(), domain.AnalysisRequest{ID: "req-8", Documents: twoDocs()})
	if err != nil {
		t.Fatalf("first Analyze() error = %v", err)
	}
	second, err := f.uc.Analyze(context.Background(), domain.AnalysisRequest{ID: "req-8", Documents: twoDocs()})
	if err != nil {
		t.Fatalf("second Analyze() error = %v", err)
	}
	if mustJSON(t, first.Violations) != mustJSON(t, second.Violations) {
		t.Fatalf("expected identical output, got %s vs %s", mustJSON(t, first.Violations), mustJSON(t, second.Violations))
	}
}
