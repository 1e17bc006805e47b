package routes

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/OFFIS-RIT/mango/internal/queue"
	"github.com/OFFIS-RIT/mango/internal/server/middleware"
	"github.com/OFFIS-RIT/mango/internal/storage"
	"github.com/OFFIS-RIT/mango/pkg/common"
	"github.com/OFFIS-RIT/mango/pkg/loader"
	"github.com/OFFIS-RIT/mango/pkg/logger"
)

// UploadDocumentsHandler accepts multipart file uploads, or a JSON body
// with a URL for web pages. Originals are stored in S3 and queued for
// ingestion; the response carries the pending registry records, so
// clients can poll GET /documents for progress.
func UploadDocumentsHandler(c echo.Context) error {
	type uploadResponse struct {
		Success     bool              `json:"success"`
		Documents   []common.Document `json:"documents"`
		Message     string            `json:"message"`
		EstimatedMs int64             `json:"estimated_ms,omitempty"`
	}

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEApplicationJSON) {
		return uploadFromURL(c)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No files provided"})
	}

	// Validate every file before any side effect.
	types := make([]loader.DocumentType, len(uploads))
	for i, file := range uploads {
		fileType, err := loader.TypeFor(file.Filename)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("Unsupported file type: %s", file.Filename),
			})
		}
		types[i] = fileType
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	documents := make([]common.Document, 0, len(uploads))

	for i, file := range uploads {
		src, err := file.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		}
		defer src.Close()

		id, err := gonanoid.New()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}

		key := storage.UploadKey(id, file.Filename)
		if err := storage.PutFile(ctx, app.S3, key, file.Filename, src); err != nil {
			logger.Error("Failed to upload file", "name", file.Filename, "err", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}

		doc := app.Engine.RegisterDocument(common.Document{
			ID:     id,
			Name:   file.Filename,
			Type:   string(types[i]),
			Size:   file.Size,
			Status: common.StatusPending,
		})
		documents = append(documents, doc)

		if err := queue.PublishIngest(app.Queue, queue.IngestMessage{
			DocumentID: id,
			Name:       file.Filename,
			Type:       string(types[i]),
			Key:        key,
		}); err != nil {
			logger.Error("Failed to publish ingest message", "id", id, "err", err)
		}
	}

	return c.JSON(http.StatusAccepted, uploadResponse{
		Success:     true,
		Documents:   documents,
		Message:     fmt.Sprintf("Successfully uploaded %d document(s)", len(documents)),
		EstimatedMs: app.Timing.PredictTotal() * int64(len(documents)),
	})
}

func uploadFromURL(c echo.Context) error {
	type uploadURLBody struct {
		URL string `json:"url" validate:"required,url"`
	}

	type uploadResponse struct {
		Success     bool              `json:"success"`
		Documents   []common.Document `json:"documents"`
		Message     string            `json:"message"`
		EstimatedMs int64             `json:"estimated_ms,omitempty"`
	}

	data := new(uploadURLBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	fileType, err := loader.TypeFor(data.URL)
	if err != nil || fileType != loader.DocumentTypeWeb {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "URL must start with http:// or https://"})
	}

	app := c.(*middleware.AppContext).App

	id, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	doc := app.Engine.RegisterDocument(common.Document{
		ID:     id,
		Name:   data.URL,
		Type:   string(loader.DocumentTypeWeb),
		Status: common.StatusPending,
	})

	if err := queue.PublishIngest(app.Queue, queue.IngestMessage{
		DocumentID: id,
		Name:       data.URL,
		Type:       string(loader.DocumentTypeWeb),
		URL:        data.URL,
	}); err != nil {
		logger.Error("Failed to publish ingest message", "id", id, "err", err)
	}

	return c.JSON(http.StatusAccepted, uploadResponse{
		Success:     true,
		Documents:   []common.Document{doc},
		Message:     "Successfully uploaded 1 document(s)",
		EstimatedMs: app.Timing.PredictTotal(),
	})
}
