package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness endpoint probed by load balancers.  It answers
// as soon as the process serves HTTP; readiness of the database is not
// part of the contract.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
