package repo

import (
	"context"
	"time"

	"github.com/Egor213/AuditTrack/internal/domain"
	"github.com/Egor213/AuditTrack/internal/repo/pgdb"
	"github.com/Egor213/AuditTrack/internal/repo/rediscache"
	"github.com/Egor213/AuditTrack/internal/repo/repotypes"
	"github.com/Egor213/AuditTrack/pkg/postgres"
	goredis "github.com/redis/go-redis/v9"
)

type Log interface {
	GetLogs(ctx context.Context, q repotypes.LogQuery) (repotypes.LogPage, error)
	InsertLog(ctx context.Context, id string, action domain.AuditAction) error
	GetActivityStats(ctx context.Context, since time.Time, buckets int) ([]domain.ActivityStat, error)
}

type User interface {
	ListUsers(ctx context.Context) ([]domain.ActorSummary, error)
}

type Repositories struct {
	Log
	User
}

type Option func(*Repositories)

// WithUserCache puts a Redis read-through cache in front of the users lookup.
func WithUserCache(client *goredis.Client, ttl time.Duration) Option {
	return func(r *Repositories) {
		if client == nil {
			return
		}
		r.User = rediscache.NewUserCache(r.User, client, ttl)
	}
}

func NewRepositories(pg *postgres.Postgres, opts ...Option) *Repositories {
	r := &Repositories{
		Log:  pgdb.NewLogRepo(pg),
		User: pgdb.NewUserRepo(pg),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}
