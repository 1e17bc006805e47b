package ai

import "context"

// ModelMetrics contains accumulated usage metrics from embedding requests.
type ModelMetrics struct {
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	TotalTokens    int     `json:"total_tokens"`
	DurationMs     int64   `json:"duration_ms"`
	TokenPerSecond float32 `json:"tokens_per_second"`
}

// EmbeddingClient is the interface embedding backends implement. Inputs are
// raw text bytes; outputs are vectors of the configured dimension.
type EmbeddingClient interface {
	// GenerateEmbedding embeds a single input. Empty or whitespace-only
	// input yields the zero vector without a model call.
	GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error)

	// GenerateEmbeddings embeds a batch of inputs, preserving input order.
	GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error)

	ResetMetrics()
	GetMetrics() ModelMetrics
}
