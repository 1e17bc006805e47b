package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/OFFIS-RIT/mango/internal/server/middleware"
	"github.com/OFFIS-RIT/mango/pkg/common"
)

func GetDocumentsHandler(c echo.Context) error {
	type getDocumentsResponse struct {
		Documents []common.Document `json:"documents"`
		Total     int               `json:"total"`
	}

	app := c.(*middleware.AppContext).App
	documents := app.Engine.ListDocuments()

	return c.JSON(http.StatusOK, getDocumentsResponse{
		Documents: documents,
		Total:     len(documents),
	})
}
