package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness endpoint used by monitors and the counter
// frontend to verify the backend is up.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
