package domain

import "time"

// UploadedDocument is a single file received for analysis.
type UploadedDocument struct {
	Filename    string
	ContentType string
	Content     []byte
}

// StoredDocument points at an upload saved to the scratch storage.
type StoredDocument struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	StorageKey  string `json:"storage_key"`
}

type AnalysisRequest struct {
	ID        string
	Documents []UploadedDocument
}

type RelevanceResult struct {
	IsRelevant bool   `json:"is_relevant"`
	Label      string `json:"label"`
}

type AnalysisResult struct {
	RequestID  string      `json:"request_id"`
	Documents  int         `json:"documents"`
	Violations []Violation `json:"violations"`
}

// AnalysisCompletedEvent is published after a successful analysis.
type AnalysisCompletedEvent struct {
	RequestID   string    `json:"request_id"`
	Documents   int       `json:"documents"`
	Violations  int       `json:"violations"`
	CompletedAt time.Time `json:"completed_at"`
}
