package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Egor213/AuditTrack/internal/domain"
	errorsUtils "github.com/Egor213/AuditTrack/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const usersKey = "audittrack:lookups:users"

type UserSource interface {
	ListUsers(ctx context.Context) ([]domain.ActorSummary, error)
}

// UserCache is a read-through cache for the users lookup. Redis failures
// degrade to the source; they never fail the lookup.
type UserCache struct {
	source UserSource
	client *goredis.Client
	ttl    time.Duration
}

func NewUserCache(source UserSource, client *goredis.Client, ttl time.Duration) *UserCache {
	return &UserCache{source: source, client: client, ttl: ttl}
}

func (c *UserCache) ListUsers(ctx context.Context) ([]domain.ActorSummary, error) {
	payload, err := c.client.Get(ctx, usersKey).Bytes()
	if err == nil {
		var users []domain.ActorSummary
		if err := json.Unmarshal(payload, &users); err == nil {
			return users, nil
		}
		log.WithField("key", usersKey).Warn("Dropping undecodable cached users")
	} else if !errors.Is(err, goredis.Nil) {
		log.WithField("error", err).Warn("Users cache read failed")
	}

	users, err := c.source.ListUsers(ctx)
	if err != nil {
		return nil, errorsUtils.WrapPathErr(err)
	}

	raw, err := json.Marshal(users)
	if err == nil {
		if err := c.client.Set(ctx, usersKey, raw, c.ttl).Err(); err != nil {
			log.WithField("error", err).Warn("Users cache write failed")
		}
	}

	return users, nil
}

// Invalidate drops the cached lookup.
func (c *UserCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, usersKey).Err(); err != nil {
		return errorsUtils.WrapPathErr(err)
	}
	return nil
}
