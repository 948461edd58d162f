package postgres

import (
	"strconv"
	"time"
)

type Option func(*Postgres)

func MaxPoolSize(size int) Option {
	return func(p *Postgres) {
		p.maxPoolSize = size
	}
}

func ConnAttempts(attempts int) Option {
	return func(p *Postgres) {
		p.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(p *Postgres) {
		p.connTimeout = timeout
	}
}

// StatementTimeout makes the server cancel any statement running longer than d.
func StatementTimeout(d time.Duration) Option {
	return func(p *Postgres) {
		p.runtimeParams["statement_timeout"] = strconv.FormatInt(d.Milliseconds(), 10)
	}
}

func ApplicationName(name string) Option {
	return func(p *Postgres) {
		p.runtimeParams["application_name"] = name
	}
}
