package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/OFFIS-RIT/mango/internal/server/middleware"
	"github.com/OFFIS-RIT/mango/internal/server/util"
	"github.com/OFFIS-RIT/mango/pkg/logger"
	"github.com/OFFIS-RIT/mango/pkg/metrics"
)

// QueryHandler embeds the query, searches the similarity index, and
// composes an extractive answer from the top passages. Confidence is
// the mean score of the returned results.
func QueryHandler(c echo.Context) error {
	type queryBody struct {
		Query string `json:"query" validate:"required"`
		TopK  int    `json:"top_k" validate:"omitempty,min=1,max=50"`
	}

	type querySource struct {
		Document   string  `json:"document"`
		DocumentID string  `json:"document_id"`
		Score      float64 `json:"score"`
		ChunkIndex int     `json:"chunk_index"`
	}

	type queryResponse struct {
		Response   string        `json:"response"`
		Sources    []querySource `json:"sources"`
		Confidence float64       `json:"confidence"`
	}

	data := new(queryBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if data.TopK == 0 {
		data.TopK = 5
	}

	app := c.(*middleware.AppContext).App
	if app.Engine.DocumentCount() == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No documents uploaded yet"})
	}

	ctx := c.Request().Context()
	results, err := app.Engine.Search(ctx, data.Query, data.TopK)
	if err != nil {
		metrics.Default().IncQueries(false)
		logger.Error("Query failed", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	sources := make([]querySource, 0, len(results))
	for _, r := range results {
		sources = append(sources, querySource{
			Document:   r.Passage.DocumentName,
			DocumentID: r.Passage.DocumentID,
			Score:      r.Score,
			ChunkIndex: r.Passage.ChunkIndex,
		})
	}

	metrics.Default().IncQueries(true)

	return c.JSON(http.StatusOK, queryResponse{
		Response:   util.SynthesizeAnswer(data.Query, results),
		Sources:    sources,
		Confidence: util.MeanScore(results),
	})
}
