package service

import (
	"context"
	"errors"
	"time"

	"github.com/Egor213/AuditTrack/internal/domain"
	"github.com/Egor213/AuditTrack/internal/metrics"
	"github.com/Egor213/AuditTrack/internal/repo"
	"github.com/Egor213/AuditTrack/internal/repo/repoerrs"
	"github.com/Egor213/AuditTrack/internal/repo/repotypes"
	errorsUtils "github.com/Egor213/AuditTrack/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type LogService struct {
	logRepo      repo.Log
	userRepo     repo.User
	counters     *metrics.Counters
	statsBuckets int
	now          func() time.Time
}

func NewLogService(lr repo.Log, ur repo.User, cnt *metrics.Counters, statsBuckets int) *LogService {
	if statsBuckets <= 0 {
		statsBuckets = DefaultStatsBuckets
	}
	return &LogService{
		logRepo:      lr,
		userRepo:     ur,
		counters:     cnt,
		statsBuckets: statsBuckets,
		now:          time.Now,
	}
}

// FetchLogs returns one page. A filter value that can never match yields an empty page.
func (s *LogService) FetchLogs(ctx context.Context, q repotypes.LogQuery) (repotypes.LogPage, error) {
	page, err := s.logRepo.GetLogs(ctx, q)
	if err != nil {
		if errors.Is(err, repoerrs.ErrInvalidFilter) {
			s.counters.LogQueries.Inc("ok")
			return repotypes.LogPage{Entries: []domain.LogEntry{}}, nil
		}
		s.counters.LogQueries.Inc("failed")
		if errorsUtils.IsCanceled(err) {
			return repotypes.LogPage{}, errorsUtils.WrapPathErr(errors.Join(ErrCannotFetchLogs, ctx.Err()))
		}
		log.WithField("error", err).Error("Failed to fetch audit logs")
		return repotypes.LogPage{}, errorsUtils.WrapPathErr(ErrCannotFetchLogs)
	}
	s.counters.LogQueries.Inc("ok")
	return page, nil
}

func (s *LogService) ListUsers(ctx context.Context) ([]domain.ActorSummary, error) {
	users, err := s.userRepo.ListUsers(ctx)
	if err != nil {
		log.WithField("error", err).Error("Failed to fetch users")
		return nil, errorsUtils.WrapPathErr(ErrCannotFetchUsers)
	}
	return users, nil
}

// ActivityStats returns the daily buckets of the recent window, newest first.
func (s *LogService) ActivityStats(ctx context.Context) ([]domain.ActivityStat, error) {
	since := s.now().UTC().Truncate(statsBucketWidth).Add(-time.Duration(s.statsBuckets-1) * statsBucketWidth)
	stats, err := s.logRepo.GetActivityStats(ctx, since, s.statsBuckets)
	if err != nil {
		log.WithField("error", err).Error("Failed to fetch activity stats")
		return nil, errorsUtils.WrapPathErr(ErrCannotFetchStats)
	}
	return stats, nil
}
