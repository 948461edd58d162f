package redis

import (
	"context"
	"time"

	errorsUtils "github.com/Egor213/AuditTrack/pkg/errors"

	goredis "github.com/redis/go-redis/v9"
)

const defaultPingTimeout = 5 * time.Second

type Option func(*goredis.Options)

func Password(password string) Option {
	return func(o *goredis.Options) {
		o.Password = password
	}
}

func DB(db int) Option {
	return func(o *goredis.Options) {
		o.DB = db
	}
}

// New returns a client that has answered a PING.
func New(ctx context.Context, addr string, opts ...Option) (*goredis.Client, error) {
	options := &goredis.Options{Addr: addr}
	for _, opt := range opts {
		opt(options)
	}

	client := goredis.NewClient(options)

	ctx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errorsUtils.WrapPathErr(err)
	}

	return client, nil
}
