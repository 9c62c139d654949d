// Package store constructs the shared key/value store handle that every
// rate-limit algorithm and the concurrency gate run their atomic scripts
// against.
//
// The core never talks to the store through a narrow Get/Set/Incr
// interface: every algorithm needs the store's full command surface
// (sorted sets, hashes, EVAL/EVALSHA, TIME) to express its script, so the
// handle type is go-redis's own redis.Cmdable rather than a project-local
// abstraction. Config loading follows this codebase's usual pattern.
//
// Usage:
//
//	cfg := store.Config{}
//	if err := config.Load(&cfg); err != nil { ... }
//	client, err := store.New(cfg)
package store

import (
	"context"
	"fmt"

	"github.com/distlimit/engine/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Config holds connection settings for the shared store.
type Config struct {
	// Host is the store server hostname.
	Host string `env:"RATELIMIT_STORE_HOST" env-default:"localhost"`

	// Port is the store server port.
	Port string `env:"RATELIMIT_STORE_PORT" env-default:"6379"`

	// Password is the authentication password (optional).
	Password string `env:"RATELIMIT_STORE_PASSWORD"`

	// DB is the logical database number.
	DB int `env:"RATELIMIT_STORE_DB" env-default:"0"`
}

// New connects to the store and verifies the connection with PING.
func New(cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, errors.New(errors.CodeUnavailable, "failed to connect to store", err)
	}

	return client, nil
}
