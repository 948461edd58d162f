package httpv1

import (
	"net/http"

	logginghelper "github.com/Egor213/AuditTrack/internal/controller/common/logging"
	"github.com/Egor213/AuditTrack/internal/viewer"
	"github.com/labstack/echo/v4"
)

type lookupRoutes struct {
	store *viewer.LogStore
}

func newLookupRoutes(g *echo.Group, store *viewer.LogStore) {
	r := &lookupRoutes{store: store}

	g.GET("/users", r.users)
	g.GET("/departments", r.departments)
	g.GET("/stats", r.stats)
}

func (r *lookupRoutes) users(c echo.Context) error {
	users, err := r.store.LookupUsers(c.Request().Context())
	if err != nil {
		logginghelper.LogQueryFailed("http", "", "users", err)
		return fail(c, err, nil)
	}
	return c.JSON(http.StatusOK, newActorsResponse(users))
}

func (r *lookupRoutes) departments(c echo.Context) error {
	departments, err := r.store.LookupDepartments(c.Request().Context())
	if err != nil {
		logginghelper.LogQueryFailed("http", "", "departments", err)
		return fail(c, err, nil)
	}
	return c.JSON(http.StatusOK, departments)
}

func (r *lookupRoutes) stats(c echo.Context) error {
	window, err := r.store.ActivityStats(c.Request().Context())
	if err != nil {
		logginghelper.LogQueryFailed("http", "", "stats", err)
		return fail(c, err, nil)
	}
	return c.JSON(http.StatusOK, newStatsResponse(viewer.Summarize(window)))
}
