package multiformat

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"github.com/kirillkom/legal-violation-analyzer/internal/core/domain"
)

var errUndeterminedEncoding = errors.New("content is not valid UTF-8 and declares no known encoding")

// extractText returns UTF-8 content verbatim. Other encodings are decoded only when
// a byte order mark or the upload's declared charset makes them certain.
func extractText(raw []byte, doc domain.StoredDocument) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}

	enc, name, certain := charset.DetermineEncoding(raw, doc.ContentType)
	if !certain {
		return "", fmt.Errorf("decode %s: %w", doc.Filename, errUndeterminedEncoding)
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode %s as %s: %w", doc.Filename, name, err)
	}
	return string(decoded), nil
}
