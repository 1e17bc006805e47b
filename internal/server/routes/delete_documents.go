package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/OFFIS-RIT/mango/internal/queue"
	"github.com/OFFIS-RIT/mango/internal/server/middleware"
	"github.com/OFFIS-RIT/mango/internal/storage"
	"github.com/OFFIS-RIT/mango/pkg/engine"
	"github.com/OFFIS-RIT/mango/pkg/loader"
	"github.com/OFFIS-RIT/mango/pkg/logger"
)

// DeleteDocumentHandler removes a document from the registry and the
// similarity index, then queues the stored original for cleanup. The
// knowledge graph keeps the document's entities; it has no removal
// operation.
func DeleteDocumentHandler(c echo.Context) error {
	type deleteDocumentParams struct {
		ID string `param:"id" validate:"required"`
	}

	type deleteDocumentResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	params := new(deleteDocumentParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	doc, ok := app.Engine.GetDocument(params.ID)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Document not found"})
	}

	if err := app.Engine.RemoveDocument(ctx, params.ID); err != nil {
		if errors.Is(err, engine.ErrDocumentNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Document not found"})
		}
		logger.Error("Failed to remove document", "id", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if doc.Type != string(loader.DocumentTypeWeb) {
		if err := queue.PublishDelete(app.Queue, queue.DeleteMessage{
			DocumentID: params.ID,
			Key:        storage.UploadKey(params.ID, doc.Name),
		}); err != nil {
			logger.Error("Failed to publish delete message", "id", params.ID, "err", err)
		}
	}

	return c.JSON(http.StatusOK, deleteDocumentResponse{
		Success: true,
		Message: "Document deleted",
	})
}
