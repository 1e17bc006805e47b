package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const apiVersion = "1.0.0"

func GetRootHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Mango API",
		"version": apiVersion,
		"status":  "active",
	})
}
