// File: internal/usecase/ingest_uc.go
package usecase

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"masumi-rag-agent/internal/domain/ports/adapter"
	"masumi-rag-agent/internal/domain/ports/repository"
)

// Compile-time check
var _ IngestUseCase = (*ingestUC)(nil)

// Chunker splits extracted text into fragments suitable for embedding.
type Chunker interface {
	Chunk(text string) []string
}

// IngestUseCase turns an uploaded document into indexed fragments.
type IngestUseCase interface {
	// IngestDocument saves the upload, extracts its text, embeds every chunk
	// and appends them to the index. Returns the number of chunks processed.
	IngestDocument(ctx context.Context, filename string, r io.Reader) (int, error)
}

type ingestUC struct {
	extractor adapter.TextExtractor
	chunker   Chunker
	ai        adapter.AIServiceAdapter
	index     repository.VectorIndex
	uploadDir string
	log       *zerolog.Logger
}

func NewIngestUseCase(
	extractor adapter.TextExtractor,
	chunker Chunker,
	ai adapter.AIServiceAdapter,
	index repository.VectorIndex,
	uploadDir string,
	logger *zerolog.Logger,
) *ingestUC {
	return &ingestUC{
		extractor: extractor,
		chunker:   chunker,
		ai:        ai,
		index:     index,
		uploadDir: uploadDir,
		log:       logger,
	}
}

func (u *ingestUC) IngestDocument(ctx context.Context, filename string, r io.Reader) (int, error) {
	docID := ulid.Make().String()
	log := u.log.With().Str("doc_id", docID).Str("file", filename).Logger()

	path, err := u.saveUpload(filename, r)
	if err != nil {
		return 0, err
	}

	text, err := u.extractor.Extract(path)
	if err != nil {
		return 0, fmt.Errorf("extract text: %w", err)
	}

	chunks := u.chunker.Chunk(text)
	for i, chunk := range chunks {
		emb, err := u.ai.Embed(ctx, chunk)
		if err != nil {
			return i, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		if err := u.index.Add(emb, chunk); err != nil {
			return i, fmt.Errorf("index chunk %d: %w", i, err)
		}
	}

	log.Info().Int("chunks", len(chunks)).Msg("document indexed")
	return len(chunks), nil
}

// saveUpload persists the raw upload under the configured directory before
// extraction. Only the base name is honored, never a caller-supplied path.
func (u *ingestUC) saveUpload(filename string, r io.Reader) (string, error) {
	if err := os.MkdirAll(u.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(u.uploadDir, filepath.Base(filename))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path, nil
}
