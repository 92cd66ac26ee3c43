package adapter

import "context"

// AIServiceAdapter is the port for the embedding and generation collaborators.
// Implementations wrap a single provider; selection happens at wiring time.
type AIServiceAdapter interface {
	// Embed converts free text into a fixed-dimension vector.
	Embed(ctx context.Context, text string) ([]float64, error)

	// Generate returns the model's raw text for the given prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}
