// Package multiformat turns stored uploads into plain text, dispatching on the
// filename extension.
package multiformat

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/kirillkom/legal-violation-analyzer/internal/core/domain"
	"github.com/kirillkom/legal-violation-analyzer/internal/core/ports"
)

type decodeFunc func(raw []byte, doc domain.StoredDocument) (string, error)

type Extractor struct {
	storage  ports.UploadStorage
	decoders map[string]decodeFunc
}

func NewExtractor(storage ports.UploadStorage) *Extractor {
	return &Extractor{
		storage: storage,
		decoders: map[string]decodeFunc{
			".pdf":  extractPDF,
			".xlsx": extractXLSX,
			".docx": extractDOCX,
			".html": extractHTML,
			".htm":  extractHTML,
		},
	}
}

func (e *Extractor) Extract(ctx context.Context, doc domain.StoredDocument) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	reader, err := e.storage.Open(ctx, doc.StorageKey)
	if err != nil {
		return "", fmt.Errorf("open stored upload: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read stored upload: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(doc.Filename))
	decode, ok := e.decoders[ext]
	if !ok {
		decode = extractText
	}

	text, err := decode(raw, doc)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, fmt.Sprintf("extract %s", doc.Filename), err)
	}
	return text, nil
}
