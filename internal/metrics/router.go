package metrics

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
)

func ConfigureRouter(handler *echo.Echo) {
	handler.GET("/metrics", echoprometheus.NewHandler())
}

// Middleware records request counts and latencies for the API router.
func Middleware(subsystem string) echo.MiddlewareFunc {
	return echoprometheus.NewMiddleware(subsystem)
}
