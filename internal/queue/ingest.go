package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/mango/internal/timing"
	"github.com/OFFIS-RIT/mango/internal/util"
	"github.com/OFFIS-RIT/mango/pkg/engine"
	"github.com/OFFIS-RIT/mango/pkg/loader"
	"github.com/OFFIS-RIT/mango/pkg/loader/doc"
	"github.com/OFFIS-RIT/mango/pkg/loader/pdf"
	"github.com/OFFIS-RIT/mango/pkg/loader/s3"
	"github.com/OFFIS-RIT/mango/pkg/loader/text"
	"github.com/OFFIS-RIT/mango/pkg/loader/web"
	"github.com/OFFIS-RIT/mango/pkg/logger"
	"github.com/OFFIS-RIT/mango/pkg/metrics"
)

// ProcessIngestMessage runs the pipeline for one document: fetch the
// source, extract text, then chunk, embed, index and extend the
// knowledge graph through the engine. On failure the registry record is
// marked failed and the error is returned so the delivery is retried;
// a later successful attempt overwrites the failed status.
func ProcessIngestMessage(ctx context.Context, params ConsumerParams, msg string) error {
	var data IngestMessage
	if err := json.Unmarshal([]byte(msg), &data); err != nil {
		return fmt.Errorf("failed to unmarshal ingest message: %w", err)
	}

	params.Engine.MarkProcessing(data.DocumentID)

	result, err := ingestDocument(ctx, params, data)
	if err != nil {
		params.Engine.MarkFailed(data.DocumentID, err)
		metrics.Default().IncDocumentsFailed()
		return err
	}

	metrics.Default().IncDocumentsIngested()
	logger.Info("[Queue] Document ingested", "id", data.DocumentID, "chunks", result.Chunks, "tokens", result.Tokens)
	return nil
}

func ingestDocument(ctx context.Context, params ConsumerParams, data IngestMessage) (engine.IngestResult, error) {
	source := data.Key
	if data.URL != "" {
		source = data.URL
	}

	fileType, err := loader.TypeFor(source)
	if err != nil {
		return engine.IngestResult{}, err
	}

	raw := s3.NewS3DocumentLoaderWithClient(util.GetEnv("AWS_BUCKET"), params.S3)

	var docLoader loader.DocumentLoader
	switch fileType {
	case loader.DocumentTypePDF:
		docLoader = pdf.NewPDFDocumentLoader(raw)
	case loader.DocumentTypeDocx:
		docLoader = doc.NewDocxDocumentLoader(raw)
	case loader.DocumentTypeText, loader.DocumentTypeMarkdown:
		docLoader = text.NewTextDocumentLoader(raw)
	case loader.DocumentTypeWeb:
		docLoader = web.NewWebDocumentLoader()
	default:
		return engine.IngestResult{}, fmt.Errorf("%w: %q", loader.ErrUnsupportedType, source)
	}

	file, err := loader.NewDocumentFile(loader.NewDocumentFileParams{
		ID:     data.DocumentID,
		Source: source,
		Loader: docLoader,
	})
	if err != nil {
		return engine.IngestResult{}, err
	}

	extractStart := time.Now()
	content, err := file.GetText(ctx)
	if err != nil {
		return engine.IngestResult{}, fmt.Errorf("failed to extract text: %w", err)
	}
	recordStep(params.Timing, "extract", time.Since(extractStart))

	indexStart := time.Now()
	result, err := params.Engine.IngestText(ctx, data.DocumentID, data.Name, util.SanitizeText(string(content)))
	if err != nil {
		return engine.IngestResult{}, err
	}
	recordStep(params.Timing, "index", time.Since(indexStart))

	return result, nil
}

func recordStep(tracker *timing.Tracker, step string, d time.Duration) {
	if tracker != nil {
		tracker.Record(step, d.Milliseconds())
	}
	metrics.Default().ObserveStepSeconds(step, d.Seconds())
}
