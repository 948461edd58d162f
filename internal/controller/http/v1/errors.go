package httpv1

import (
	"errors"
	"net/http"

	"github.com/Egor213/AuditTrack/internal/domain"
	"github.com/Egor213/AuditTrack/internal/export"
	"github.com/Egor213/AuditTrack/internal/viewer"
	"github.com/labstack/echo/v4"
)

var ErrInvalidFilter = errors.New("invalid filter value")

type errorResponse struct {
	Error     string          `json:"error"`
	Retryable bool            `json:"retryable,omitempty"`
	Viewer    *viewerResponse `json:"viewer,omitempty"`
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, viewer.ErrSessionNotFound), errors.Is(err, viewer.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, viewer.ErrUnknownSortField),
		errors.Is(err, viewer.ErrInvalidDateRange),
		errors.Is(err, export.ErrUnknownFormat),
		errors.Is(err, domain.ErrInvalidActionKind),
		errors.Is(err, ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, viewer.ErrStaleResponse):
		return http.StatusConflict
	case errors.Is(err, viewer.ErrFetch), errors.Is(err, export.ErrExport):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// fail writes err, attaching the viewer state when there is one to show.
func fail(c echo.Context, err error, snap *viewer.Snapshot) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	resp := errorResponse{Error: err.Error()}
	var fe *viewer.FetchError
	if errors.As(err, &fe) {
		resp.Retryable = fe.Retryable()
	}
	if snap != nil {
		v := newViewerResponse(*snap)
		resp.Viewer = &v
	}
	return c.JSON(errorStatus(err), resp)
}
