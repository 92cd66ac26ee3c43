package ingest

import (
	"github.com/pkoukk/tiktoken-go"
)

// Chunker splits extracted text into fixed-size pieces for embedding.
// It counts in tokens (cl100k_base) when the encoding is available and falls
// back to a rune window otherwise, so ingestion works offline too.
type Chunker struct {
	size int
	enc  *tiktoken.Tiktoken
}

// runesPerToken approximates the fallback window: ~4 chars per token for
// English prose.
const runesPerToken = 4

func NewChunker(size int) *Chunker {
	if size <= 0 {
		size = 256
	}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		enc = nil
	}
	return &Chunker{size: size, enc: enc}
}

// Chunk splits text into consecutive windows. Empty input yields no chunks.
func (c *Chunker) Chunk(text string) []string {
	if text == "" {
		return nil
	}
	if c.enc == nil {
		return chunkRunes(text, c.size*runesPerToken)
	}

	tokens := c.enc.Encode(text, nil, nil)
	var out []string
	for start := 0; start < len(tokens); start += c.size {
		end := start + c.size
		if end > len(tokens) {
			end = len(tokens)
		}
		out = append(out, c.enc.Decode(tokens[start:end]))
	}
	return out
}

func chunkRunes(text string, size int) []string {
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}
