package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rithish08/fyke-connect-india-sub001/internal/bootstrap"
)

var errRedisNotConfigured = errors.New("redis not configured")

// database connects Postgres on first use.
func (a *adminApp) database() (*sql.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := bootstrap.ConnectDB(context.Background(), a.cfg.Postgres, a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	a.db = db
	return db, nil
}

// redisClient connects Redis on first use.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func (a *adminApp) redisClient() (redis.UniversalClient, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	if !bootstrap.RedisConfigured(a.cfg.Redis) {
		return nil, errRedisNotConfigured
	}
	client, err := bootstrap.ConnectRedis(context.Background(), a.cfg.Redis, a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.redis = client
	return client, nil
}

func (a *adminApp) closeInfra() error {
	var closeErr error
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close db: %w", err))
		}
		a.db = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close redis: %w", err))
		}
		a.redis = nil
	}
	return closeErr
}
