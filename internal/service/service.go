package service

import (
	"context"
	"time"

	"github.com/Egor213/AuditTrack/internal/broker"
	"github.com/Egor213/AuditTrack/internal/domain"
	"github.com/Egor213/AuditTrack/internal/metrics"
	"github.com/Egor213/AuditTrack/internal/repo"
	"github.com/Egor213/AuditTrack/internal/repo/repotypes"
)

const (
	DefaultStatsBuckets = 30
	statsBucketWidth    = 24 * time.Hour
)

type Log interface {
	FetchLogs(ctx context.Context, q repotypes.LogQuery) (repotypes.LogPage, error)
	ListUsers(ctx context.Context) ([]domain.ActorSummary, error)
	ActivityStats(ctx context.Context) ([]domain.ActivityStat, error)
}

type Audit interface {
	RecordAction(ctx context.Context, action domain.AuditAction) (string, error)
}

type Services struct {
	Log
	Audit
}

type ServicesDependencies struct {
	Repos          *repo.Repositories
	Counters       *metrics.Counters
	BrokerProducer broker.Producer
	StatsBuckets   int
}

func NewServices(deps ServicesDependencies) *Services {
	return &Services{
		Log:   NewLogService(deps.Repos.Log, deps.Repos.User, deps.Counters, deps.StatsBuckets),
		Audit: NewAuditService(deps.Repos.Log, deps.BrokerProducer, deps.Counters),
	}
}
