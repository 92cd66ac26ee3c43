package ingest

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"masumi-rag-agent/internal/domain/ports/adapter"
)

var _ adapter.TextExtractor = (*PlainTextExtractor)(nil)

// PlainTextExtractor reads a document as UTF-8 text. It stands in for a real
// PDF extraction service; anything that is not valid text is rejected rather
// than indexed as garbage.
type PlainTextExtractor struct{}

func NewPlainTextExtractor() *PlainTextExtractor { return &PlainTextExtractor{} }

func (e *PlainTextExtractor) Extract(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("extract: read %s: %w", path, err)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("extract: %s is not valid UTF-8 text", path)
	}
	return strings.TrimSpace(string(b)), nil
}
