package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/OFFIS-RIT/mango/pkg/ai"
	"github.com/OFFIS-RIT/mango/pkg/chunker"
	"github.com/OFFIS-RIT/mango/pkg/common"
	"github.com/OFFIS-RIT/mango/pkg/index"
	"github.com/OFFIS-RIT/mango/pkg/knowledge"
	"github.com/OFFIS-RIT/mango/pkg/logger"
)

const tokenEncoding = "o200k_base"

var (
	ErrDocumentNotFound = errors.New("document not found")
)

// Params configures an Engine. Index and AI must be supplied; Chunker and
// Knowledge default to fresh instances when nil.
type Params struct {
	Chunker   *chunker.Chunker
	Index     *index.Index
	Knowledge *knowledge.Builder
	AI        ai.EmbeddingClient
}

// Engine composes the chunker, the similarity index, the knowledge graph
// builder, and an embedding client into the ingestion and retrieval
// pipeline. It also owns the in-process document registry.
//
// The index and the builder serialize their own state; the registry has
// its own lock. Cross-component updates are ordered so that a failure in
// any step leaves index, graph, and registry unchanged for that document.
type Engine struct {
	chunker   *chunker.Chunker
	index     *index.Index
	knowledge *knowledge.Builder
	ai        ai.EmbeddingClient

	registry registry
}

// New creates an Engine from the given components.
func New(params Params) *Engine {
	if params.Chunker == nil {
		params.Chunker = chunker.New(0, 0)
	}
	if params.Knowledge == nil {
		params.Knowledge = knowledge.NewBuilder()
	}

	return &Engine{
		chunker:   params.Chunker,
		index:     params.Index,
		knowledge: params.Knowledge,
		ai:        params.AI,
		registry:  newRegistry(),
	}
}

// IngestResult reports what a completed ingestion produced.
type IngestResult struct {
	Chunks int
	Tokens int
}

// IngestText runs the indexing pipeline for an extracted document text:
// chunk, count tokens, embed, add to the index, add to the knowledge
// graph, and mark the registry record indexed. On error nothing is
// applied and the caller decides how to mark the document.
func (e *Engine) IngestText(ctx context.Context, documentID, documentName, text string) (IngestResult, error) {
	chunks := e.chunker.Chunk(text)

	// Counting can fail (the encoding is fetched on first use), so it
	// runs before any state is touched.
	tokens, err := countTokens(text)
	if err != nil {
		return IngestResult{}, fmt.Errorf("failed to count tokens: %w", err)
	}

	vectors, err := e.embedTexts(ctx, chunks)
	if err != nil {
		return IngestResult{}, fmt.Errorf("failed to embed chunks: %w", err)
	}

	passages := make([]common.Passage, len(chunks))
	for i, chunk := range chunks {
		passages[i] = common.Passage{
			Text:         chunk,
			DocumentID:   documentID,
			DocumentName: documentName,
			ChunkIndex:   i,
		}
	}

	if _, err := e.index.Add(passages, vectors); err != nil {
		return IngestResult{}, fmt.Errorf("failed to index chunks: %w", err)
	}

	e.knowledge.AddDocument(documentID, text, chunks)

	e.registry.markIndexed(documentID, len(chunks), tokens)

	logger.Info("Indexed document",
		"id", documentID,
		"name", documentName,
		"chunks", len(chunks),
		"tokens", tokens,
	)

	return IngestResult{Chunks: len(chunks), Tokens: tokens}, nil
}

// Search embeds the query and returns the k nearest passages.
func (e *Engine) Search(ctx context.Context, query string, k int) ([]common.SearchResult, error) {
	vec, err := e.ai.GenerateEmbedding(ctx, []byte(query))
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	return e.index.Search(widen(vec), k)
}

// RemoveDocument deletes a document from the registry and rebuilds the
// index without its passages. The knowledge graph keeps its entities;
// document deletion is not supported there.
func (e *Engine) RemoveDocument(ctx context.Context, documentID string) error {
	if !e.registry.remove(documentID) {
		return ErrDocumentNotFound
	}

	if err := e.index.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("failed to rebuild index: %w", err)
	}

	logger.Info("Removed document", "id", documentID)

	return nil
}

// Graph materializes the current knowledge graph view.
func (e *Engine) Graph() common.GraphView {
	return e.knowledge.BuildGraph()
}

// EntityDetails returns details for a single graph entity.
func (e *Engine) EntityDetails(entity string) (common.EntityDetails, error) {
	return e.knowledge.EntityDetails(entity)
}

// Stats summarizes registry, index, and graph state.
type Stats struct {
	TotalDocuments      int            `json:"total_documents"`
	TotalChunks         int            `json:"total_chunks"`
	TotalSize           int64          `json:"total_size"`
	TotalTokens         int            `json:"total_tokens"`
	VectorStoreSize     int            `json:"vector_store_size"`
	KnowledgeGraphNodes int            `json:"knowledge_graph_nodes"`
	DocumentsByStatus   map[string]int `json:"documents_by_status"`
}

// Stats reports corpus totals across the registry, the index, and the
// graph. After a restart the index may hold restored passages for
// documents the process-lifetime registry no longer lists.
func (e *Engine) Stats() Stats {
	stats := Stats{
		VectorStoreSize:     e.index.Size(),
		KnowledgeGraphNodes: e.knowledge.NodeCount(),
		DocumentsByStatus:   make(map[string]int),
	}

	for _, doc := range e.registry.list() {
		stats.TotalDocuments++
		stats.TotalChunks += doc.Chunks
		stats.TotalSize += doc.Size
		stats.TotalTokens += doc.Tokens
		stats.DocumentsByStatus[doc.Status]++
	}

	return stats
}

// Embedder adapts an embedding client to the index's embed function,
// widening client vectors to the index's float64 storage. The same
// adapter serves both initial indexing and delete rebuilds, so it can be
// handed to index.New before the engine exists.
func Embedder(client ai.EmbeddingClient) index.EmbedFunc {
	return func(ctx context.Context, texts []string) ([][]float64, error) {
		inputs := make([][]byte, len(texts))
		for i, text := range texts {
			inputs[i] = []byte(text)
		}

		vecs, err := client.GenerateEmbeddings(ctx, inputs)
		if err != nil {
			return nil, err
		}

		out := make([][]float64, len(vecs))
		for i, vec := range vecs {
			out[i] = widen(vec)
		}

		return out, nil
	}
}

func (e *Engine) embedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	return Embedder(e.ai)(ctx, texts)
}

func widen(vec []float32) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}

func countTokens(text string) (int, error) {
	enc, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		return 0, err
	}

	return len(enc.Encode(text, nil, nil)), nil
}
