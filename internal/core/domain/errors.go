package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNoFiles        = errors.New("no files uploaded")
	ErrNotRelevant    = errors.New("documents not relevant")
	ErrExtraction     = errors.New("extraction failed")
	ErrClassification = errors.New("classification failed")
	ErrGeneration     = errors.New("generation failed")
	ErrInvalidInput   = errors.New("invalid input")
	ErrTemporary      = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// Messages safe to show to API callers. Causes stay in server logs.
const (
	MessageNoFiles        = "No files uploaded"
	MessageNotRelevant    = "The uploaded documents are not relevant to the issue described."
	MessageAnalysisFailed = "Failed to analyze documents"
)

func ClientMessage(err error) string {
	switch {
	case IsKind(err, ErrNoFiles):
		return MessageNoFiles
	case IsKind(err, ErrNotRelevant):
		return MessageNotRelevant
	default:
		return MessageAnalysisFailed
	}
}
