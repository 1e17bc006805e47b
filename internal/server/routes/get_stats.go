package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/OFFIS-RIT/mango/internal/server/middleware"
	"github.com/OFFIS-RIT/mango/pkg/engine"
)

func GetStatsHandler(c echo.Context) error {
	type getStatsResponse struct {
		engine.Stats
		AvgStepMs map[string]float64 `json:"avg_step_ms"`
	}

	app := c.(*middleware.AppContext).App

	return c.JSON(http.StatusOK, getStatsResponse{
		Stats:     app.Engine.Stats(),
		AvgStepMs: app.Timing.Averages(),
	})
}
