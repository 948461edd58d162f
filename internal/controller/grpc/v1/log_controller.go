package grpcv1

import (
	"context"
	"errors"
	"time"

	logginghelper "github.com/Egor213/AuditTrack/internal/controller/common/logging"
	"github.com/Egor213/AuditTrack/internal/controller/grpc/validators"
	"github.com/Egor213/AuditTrack/internal/domain"
	"github.com/Egor213/AuditTrack/internal/metrics"
	"github.com/Egor213/AuditTrack/internal/service"
	"github.com/Egor213/AuditTrack/internal/viewer"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const transport = "grpc"

// LogController serves stateless reads. Every call carries its own filter,
// sort and page, so no viewer session is kept between calls.
type LogController struct {
	logService   service.Log
	counters     *metrics.Counters
	builder      viewer.QueryBuilder
	pageSize     int
	fetchTimeout time.Duration
}

func NewLogController(ls service.Log, cnt *metrics.Counters, opts viewer.Options) *LogController {
	return &LogController{
		logService:   ls,
		counters:     cnt,
		builder:      viewer.NewQueryBuilder(opts.ActorJoin),
		pageSize:     opts.PageSize,
		fetchTimeout: opts.FetchTimeout,
	}
}

func (c *LogController) ListLogs(ctx context.Context, req *ListLogsRequest) (*ListLogsResponse, error) {
	c.counters.GrpcRequests.Inc(listLogsMethodName, "received")

	filter, sorter, pager, err := c.parseListLogs(req)
	if err != nil {
		c.counters.GrpcRequests.Inc(listLogsMethodName, "failed")
		logginghelper.LogQueryFailed(transport, "", listLogsMethodName, err)
		return nil, status.Errorf(codes.InvalidArgument, "invalid argument: %s", err)
	}

	logginghelper.LogQueryIssued(transport, "", listLogsMethodName)

	page, err := c.store().Load(ctx, c.builder.Build(filter, sorter, pager))
	if err != nil {
		c.counters.GrpcRequests.Inc(listLogsMethodName, "failed")
		logginghelper.LogQueryFailed(transport, "", listLogsMethodName, err)
		return nil, statusFromError(err)
	}

	c.counters.GrpcRequests.Inc(listLogsMethodName, "ok")

	pager = pager.WithTotal(page.Total)
	resp := &ListLogsResponse{
		Entries: make([]LogEntry, 0, len(page.Entries)),
		Total:   page.Total,
		Page:    pager.Index,
		MaxPage: pager.MaxPage(),
	}
	for _, e := range page.Entries {
		resp.Entries = append(resp.Entries, toLogEntry(e))
	}
	return resp, nil
}

func (c *LogController) GetStats(ctx context.Context, _ *GetStatsRequest) (*GetStatsResponse, error) {
	c.counters.GrpcRequests.Inc(getStatsMethodName, "received")

	window, err := c.store().ActivityStats(ctx)
	if err != nil {
		c.counters.GrpcRequests.Inc(getStatsMethodName, "failed")
		logginghelper.LogQueryFailed(transport, "", getStatsMethodName, err)
		return nil, statusFromError(err)
	}

	c.counters.GrpcRequests.Inc(getStatsMethodName, "ok")
	return toStatsResponse(viewer.Summarize(window)), nil
}

func (c *LogController) parseListLogs(req *ListLogsRequest) (viewer.FilterState, viewer.Sorter, viewer.Pager, error) {
	var pager viewer.Pager

	if err := validators.ValidatePage(req.Page, req.PageSize); err != nil {
		return viewer.FilterState{}, viewer.Sorter{}, pager, err
	}

	filter, err := filterFromRequest(req.Filter)
	if err != nil {
		return filter, viewer.Sorter{}, pager, err
	}
	if err := validators.ValidateFilter(filter); err != nil {
		return filter, viewer.Sorter{}, pager, err
	}

	sorter, err := sorterFromRequest(req.Sort)
	if err != nil {
		return filter, sorter, pager, err
	}

	size := req.PageSize
	if size == 0 {
		size = c.pageSize
	}
	pager = viewer.NewPager(size)
	pager.Index = max(req.Page, 1)

	return filter, sorter, pager, nil
}

func (c *LogController) store() *viewer.LogStore {
	return viewer.NewLogStore(c.logService, viewer.WithFetchTimeout(c.fetchTimeout))
}

func statusFromError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, viewer.ErrFetch):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, viewer.ErrUnknownSortField), errors.Is(err, domain.ErrInvalidActionKind):
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}
