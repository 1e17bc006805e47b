package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/OFFIS-RIT/mango/internal/server/middleware"
	"github.com/OFFIS-RIT/mango/pkg/knowledge"
	"github.com/OFFIS-RIT/mango/pkg/logger"
)

func GetKnowledgeGraphHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	return c.JSON(http.StatusOK, app.Engine.Graph())
}

func GetKnowledgeGraphEntityHandler(c echo.Context) error {
	type entityParams struct {
		Name string `param:"name" validate:"required"`
	}

	params := new(entityParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App

	details, err := app.Engine.EntityDetails(params.Name)
	if err != nil {
		if errors.Is(err, knowledge.ErrEntityNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Entity not found"})
		}
		logger.Error("Failed to load entity details", "entity", params.Name, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, details)
}
