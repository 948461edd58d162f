package httpv1

import (
	"net/http"
	"time"

	"github.com/Egor213/AuditTrack/internal/viewer"
	"github.com/go-chi/httprate"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/unrolled/secure"
)

const (
	defaultExportLimit = 10
	exportWindow       = time.Minute
)

type RouterDeps struct {
	Registry    *viewer.Registry
	Lookups     *viewer.LogStore
	JWTSecret   string
	ExportLimit int
	Middlewares []echo.MiddlewareFunc
}

func ConfigureRouter(e *echo.Echo, deps RouterDeps) {
	e.Validator = NewValidator()

	e.Use(middleware.Recover())
	e.Use(echo.WrapMiddleware(secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'",
	}).Handler))
	e.Use(requestLogger())
	e.Use(deps.Middlewares...)

	api := e.Group("/api/v1", IdentityMiddleware([]byte(deps.JWTSecret)))
	newLookupRoutes(api.Group("/lookups"), deps.Lookups)
	newViewerRoutes(api.Group("/viewers"), deps.Registry, exportLimiter(deps.ExportLimit))
}

// exportLimiter throttles exports per actor, falling back to the client IP.
func exportLimiter(limit int) echo.MiddlewareFunc {
	if limit <= 0 {
		limit = defaultExportLimit
	}
	return echo.WrapMiddleware(httprate.Limit(limit, exportWindow,
		httprate.WithKeyFuncs(exportRateKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	))
}

func exportRateKey(r *http.Request) (string, error) {
	if id := identityFrom(r.Context()); id.ActorID != nil {
		return "actor:" + *id.ActorID, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(log.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
			})
			if v.Error != nil {
				entry.WithField("error", v.Error).Warn("HTTP request failed")
				return nil
			}
			entry.Debug("HTTP request")
			return nil
		},
	})
}
