package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/OFFIS-RIT/mango/internal/queue"
	"github.com/OFFIS-RIT/mango/internal/server"
	mid "github.com/OFFIS-RIT/mango/internal/server/middleware"
	"github.com/OFFIS-RIT/mango/internal/storage"
	"github.com/OFFIS-RIT/mango/internal/timing"
	"github.com/OFFIS-RIT/mango/internal/util"

	"github.com/OFFIS-RIT/mango/pkg/ai"
	oai "github.com/OFFIS-RIT/mango/pkg/ai/ollama"
	gai "github.com/OFFIS-RIT/mango/pkg/ai/openai"
	"github.com/OFFIS-RIT/mango/pkg/chunker"
	"github.com/OFFIS-RIT/mango/pkg/engine"
	"github.com/OFFIS-RIT/mango/pkg/index"
	"github.com/OFFIS-RIT/mango/pkg/logger"
	"github.com/OFFIS-RIT/mango/pkg/logger/console"
	"github.com/OFFIS-RIT/mango/pkg/metrics"

	"github.com/MicahParks/keyfunc/v3"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	consoleSink := console.NewConsoleSink(console.Options{
		Level: util.GetEnvString("LOG_LEVEL", "info"),
	})
	logger.Init(consoleSink)

	metrics.InitFromEnv()

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

	// Index restores its snapshot on startup when one exists
	idx := index.New(index.Params{
		Dimension:    util.GetEnvInt("AI_EMBED_DIM", index.DefaultDimension),
		SnapshotPath: util.GetEnvString("INDEX_SNAPSHOT", "data/index.gob"),
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

	// Init s3 client
	s3Client, err := storage.NewS3Client(ctx)
	if err != nil {
		logger.Fatal("Could not create S3 client", "err", err)
	}

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	// Init rabbitmq queues if not exist
	if err := queue.SetupQueues(ch, queue.Queues); err != nil {
		logger.Fatal("Failed to declare queues", "err", err)
	}

	tracker := timing.NewTracker()

	err = queue.StartConsumers(ctx, queue.ConsumerParams{
		Conn:   conn,
		Engine: eng,
		S3:     s3Client,
		Timing: tracker,
	})
	if err != nil {
		logger.Fatal("Failed to start consumers", "err", err)
	}

	// Auth is optional. Without a JWKS URL and master key the API is open.
	var key *keyfunc.Keyfunc
	if jwksUrl := util.GetEnv("AUTH_JWKS_URL"); jwksUrl != "" {
		k, err := keyfunc.NewDefault([]string{jwksUrl})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		key = &k
	}

	server.Init(ctx, &mid.App{
		Engine:       eng,
		Queue:        ch,
		S3:           s3Client,
		Timing:       tracker,
		Key:          key,
		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
	})
}
