package main

import (
	"context"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/mango/internal/util"

	"github.com/OFFIS-RIT/mango/pkg/ai"
	oai "github.com/OFFIS-RIT/mango/pkg/ai/ollama"
	gai "github.com/OFFIS-RIT/mango/pkg/ai/openai"
	"github.com/OFFIS-RIT/mango/pkg/chunker"
	"github.com/OFFIS-RIT/mango/pkg/common"
	"github.com/OFFIS-RIT/mango/pkg/engine"
	"github.com/OFFIS-RIT/mango/pkg/index"
	"github.com/OFFIS-RIT/mango/pkg/loader"
	"github.com/OFFIS-RIT/mango/pkg/loader/doc"
	lio "github.com/OFFIS-RIT/mango/pkg/loader/io"
	"github.com/OFFIS-RIT/mango/pkg/loader/pdf"
	"github.com/OFFIS-RIT/mango/pkg/loader/text"
	"github.com/OFFIS-RIT/mango/pkg/logger"
	"github.com/OFFIS-RIT/mango/pkg/logger/console"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Offline indexer. Walks a directory, runs the extraction and indexing
// pipeline synchronously for every supported file, and leaves behind the
// index snapshot the server restores on startup. No RabbitMQ or S3
// involved.
func main() {
	dir := flag.String("dir", "docs", "directory to index recursively")
	snapshot := flag.String("snapshot", "", "snapshot path (defaults to INDEX_SNAPSHOT or data/index.gob)")
	flag.Parse()

	util.LoadEnv()

	consoleSink := console.NewConsoleSink(console.Options{
		Level: util.GetEnvString("LOG_LEVEL", "info"),
	})
	logger.Init(consoleSink)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshotPath := *snapshot
	if snapshotPath == "" {
		snapshotPath = util.GetEnvString("INDEX_SNAPSHOT", "data/index.gob")
	}

	// Embedding client
	adapter := util.GetEnv("AI_ADAPTER")
	var aiClient ai.EmbeddingClient

	switch adapter {
	case "ollama":
		client, err := oai.NewOllamaClient(oai.NewOllamaClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),

			BaseURL: util.GetEnv("AI_EMBED_URL"),
			ApiKey:  util.GetEnv("AI_EMBED_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
			TimeoutMin:            util.GetEnvInt("AI_TIMEOUT_MIN", 5),
		})
		if err != nil {
			logger.Fatal("Could not create Ollama client", "err", err)
		}
		aiClient = client
	default:
		aiClient = gai.NewOpenAIClient(gai.NewOpenAIClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),

			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
			TimeoutMin:            util.GetEnvInt("AI_TIMEOUT_MIN", 5),
		})
	}

	idx := index.New(index.Params{
		Dimension:    util.GetEnvInt("AI_EMBED_DIM", index.DefaultDimension),
		SnapshotPath: snapshotPath,
		Embed:        engine.Embedder(aiClient),
	})

	eng := engine.New(engine.Params{
		Chunker: chunker.New(
			util.GetEnvInt("CHUNK_SIZE", 0),
			util.GetEnvInt("CHUNK_OVERLAP", 0),
		),
		Index: idx,
		AI:    aiClient,
	})

	raw := lio.NewIODocumentLoader()

	indexed := 0
	failed := 0
	skipped := 0
	start := time.Now()

	walkErr := filepath.WalkDir(*dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fileType, err := loader.TypeFor(path)
		if err != nil {
			skipped++
			logger.Debug("Skipping unsupported file", "path", path)
			return nil
		}

		var docLoader loader.DocumentLoader
		switch fileType {
		case loader.DocumentTypePDF:
			docLoader = pdf.NewPDFDocumentLoader(raw)
		case loader.DocumentTypeDocx:
			docLoader = doc.NewDocxDocumentLoader(raw)
		default:
			docLoader = text.NewTextDocumentLoader(raw)
		}

		id, err := gonanoid.New()
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		eng.RegisterDocument(common.Document{
			ID:     id,
			Name:   d.Name(),
			Type:   string(fileType),
			Size:   info.Size(),
			Status: common.StatusProcessing,
		})

		file, err := loader.NewDocumentFile(loader.NewDocumentFileParams{
			ID:     id,
			Source: path,
			Loader: docLoader,
		})
		if err != nil {
			return err
		}

		content, err := file.GetText(ctx)
		if err != nil {
			failed++
			eng.MarkFailed(id, err)
			logger.Error("Failed to extract text", "path", path, "err", err)
			return nil
		}

		result, err := eng.IngestText(ctx, id, d.Name(), util.SanitizeText(string(content)))
		if err != nil {
			failed++
			eng.MarkFailed(id, err)
			logger.Error("Failed to index document", "path", path, "err", err)
			return nil
		}

		indexed++
		logger.Info("Indexed document", "path", path, "chunks", result.Chunks, "tokens", result.Tokens)
		return nil
	})
	if walkErr != nil {
		logger.Fatal("Walk failed", "dir", *dir, "err", walkErr)
	}

	stats := eng.Stats()
	logger.Info(
		"Indexing finished",
		"indexed", indexed,
		"failed", failed,
		"skipped", skipped,
		"chunks", stats.TotalChunks,
		"tokens", stats.TotalTokens,
		"entities", stats.KnowledgeGraphNodes,
		"snapshot", snapshotPath,
		"duration", time.Since(start).Round(time.Millisecond),
	)
}
