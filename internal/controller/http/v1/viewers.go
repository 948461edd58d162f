package httpv1

import (
	"context"
	"fmt"
	"net/http"

	logginghelper "github.com/Egor213/AuditTrack/internal/controller/common/logging"
	"github.com/Egor213/AuditTrack/internal/export"
	"github.com/Egor213/AuditTrack/internal/viewer"
	"github.com/labstack/echo/v4"
)

type viewerRoutes struct {
	registry *viewer.Registry
}

func newViewerRoutes(g *echo.Group, registry *viewer.Registry, exportLimiter echo.MiddlewareFunc) {
	r := &viewerRoutes{registry: registry}

	g.POST("", r.open)
	g.GET("/:id", r.get)
	g.DELETE("/:id", r.close)
	g.PATCH("/:id/filter", r.filter)
	g.PUT("/:id/sort", r.sort)
	g.PUT("/:id/page", r.page)
	g.POST("/:id/page/next", r.next)
	g.POST("/:id/page/previous", r.previous)
	g.POST("/:id/reload", r.reload)
	g.PUT("/:id/selection", r.selectEntry)
	g.DELETE("/:id/selection", r.clearSelection)
	g.GET("/:id/export", r.export, exportLimiter)
}

// session returns the caller's session. Another actor's session is reported as missing.
func (r *viewerRoutes) session(c echo.Context) (*viewer.Session, error) {
	s, err := r.registry.Get(c.Param("id"))
	if err != nil {
		return nil, err
	}
	if !s.Identity().SameActor(identityFrom(c.Request().Context())) {
		return nil, viewer.ErrSessionNotFound
	}
	return s, nil
}

func respond(c echo.Context, status int, op string, snap viewer.Snapshot, err error) error {
	if err != nil {
		logginghelper.LogQueryFailed("http", snap.ID, op, err)
		return fail(c, err, &snap)
	}
	return c.JSON(status, newViewerResponse(snap))
}

type dispatchFunc func(ctx context.Context, s *viewer.Session) (viewer.Snapshot, error)

func (r *viewerRoutes) dispatch(c echo.Context, op string, fn dispatchFunc) error {
	s, err := r.session(c)
	if err != nil {
		return fail(c, err, nil)
	}
	logginghelper.LogQueryIssued("http", s.ID(), op)
	snap, err := fn(c.Request().Context(), s)
	return respond(c, http.StatusOK, op, snap, err)
}

func (r *viewerRoutes) open(c echo.Context) error {
	var req openViewerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	s := r.registry.Open(identityFrom(c.Request().Context()))
	logginghelper.LogQueryIssued("http", s.ID(), "initialize")

	snap, err := s.Initialize(c.Request().Context(), req.PageSize)
	return respond(c, http.StatusCreated, "initialize", snap, err)
}

func (r *viewerRoutes) get(c echo.Context) error {
	s, err := r.session(c)
	if err != nil {
		return fail(c, err, nil)
	}
	return c.JSON(http.StatusOK, newViewerResponse(s.Snapshot()))
}

func (r *viewerRoutes) close(c echo.Context) error {
	if _, err := r.session(c); err != nil {
		return fail(c, err, nil)
	}
	if err := r.registry.Close(c.Param("id")); err != nil {
		return fail(c, err, nil)
	}
	return c.NoContent(http.StatusNoContent)
}

func (r *viewerRoutes) filter(c echo.Context) error {
	var req filterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	patch, err := req.toPatch()
	if err != nil {
		return fail(c, err, nil)
	}
	return r.dispatch(c, "filter", func(ctx context.Context, s *viewer.Session) (viewer.Snapshot, error) {
		return s.SetFilter(ctx, patch)
	})
}

func (r *viewerRoutes) sort(c echo.Context) error {
	var req sortRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	field, err := viewer.ParseSortField(req.Field)
	if err != nil {
		return fail(c, err, nil)
	}
	return r.dispatch(c, "sort", func(ctx context.Context, s *viewer.Session) (viewer.Snapshot, error) {
		return s.SetSort(ctx, field)
	})
}

func (r *viewerRoutes) page(c echo.Context) error {
	var req pageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return r.dispatch(c, "page", func(ctx context.Context, s *viewer.Session) (viewer.Snapshot, error) {
		return s.SetPage(ctx, req.Page)
	})
}

func (r *viewerRoutes) next(c echo.Context) error {
	return r.dispatch(c, "next", func(ctx context.Context, s *viewer.Session) (viewer.Snapshot, error) {
		return s.Next(ctx)
	})
}

func (r *viewerRoutes) previous(c echo.Context) error {
	return r.dispatch(c, "previous", func(ctx context.Context, s *viewer.Session) (viewer.Snapshot, error) {
		return s.Previous(ctx)
	})
}

func (r *viewerRoutes) reload(c echo.Context) error {
	return r.dispatch(c, "reload", func(ctx context.Context, s *viewer.Session) (viewer.Snapshot, error) {
		return s.Reload(ctx)
	})
}

func (r *viewerRoutes) selectEntry(c echo.Context) error {
	var req selectionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	s, err := r.session(c)
	if err != nil {
		return fail(c, err, nil)
	}
	view, err := s.SelectEntry(req.EntryID)
	if err != nil {
		return fail(c, err, nil)
	}
	return c.JSON(http.StatusOK, newDetailResponse(view))
}

func (r *viewerRoutes) clearSelection(c echo.Context) error {
	s, err := r.session(c)
	if err != nil {
		return fail(c, err, nil)
	}
	s.ClearSelection()
	return c.NoContent(http.StatusNoContent)
}

func (r *viewerRoutes) export(c echo.Context) error {
	var req exportRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return fail(c, err, nil)
	}
	s, err := r.session(c)
	if err != nil {
		return fail(c, err, nil)
	}

	artifact, err := s.ExportCurrentPage(c.Request().Context(), format)
	if err != nil {
		logginghelper.LogExportFailed(s.ID(), format, err)
		return fail(c, err, nil)
	}
	logginghelper.LogExportDelivered(s.ID(), artifact)

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	return c.Blob(http.StatusOK, artifact.ContentType, artifact.Data)
}
