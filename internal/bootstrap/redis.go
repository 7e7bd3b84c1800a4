package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/rithish08/fyke-connect-india-sub001/config"
)

// ConnectRedis builds a cluster, sentinel or direct client from cfg and pings it.
//
//nolint:ireturn // the concrete client type depends on the deployment topology.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	client, desc, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, errors.Join(fmt.Errorf("ping redis: %w", err), client.Close())
	}

	if logger != nil {
		logger.InfoContext(ctx, "redis connected", "addr", desc)
	}
	return client, nil
}

// RedisConfigured reports whether cfg names enough addresses to dial.
func RedisConfigured(cfg config.RedisConfig) bool {
	switch {
	case cfg.UseCluster:
		return len(normalizeAddrs(cfg.ClusterNodes)) > 0 || strings.TrimSpace(cfg.URI) != ""
	case cfg.UseSentinel:
		return len(normalizeAddrs(cfg.SentinelNodes)) > 0
	default:
		return strings.TrimSpace(cfg.URI) != ""
	}
}

// newRedisClient returns the client and a credential-free description for logs.
//
//nolint:ireturn // see ConnectRedis.
func newRedisClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	switch {
	case cfg.UseCluster:
		return newClusterClient(cfg)
	case cfg.UseSentinel:
		nodes := normalizeAddrs(cfg.SentinelNodes)
		if len(nodes) == 0 {
			return nil, "", errors.New("redis sentinel mode requires at least one sentinel node")
		}
		client := redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       cfg.SentinelMasterName,
			SentinelAddrs:    nodes,
			Password:         cfg.Password,
			SentinelPassword: cfg.SentinelPassword,
			DB:               cfg.DB,
		})
		return client, "sentinel:" + cfg.SentinelMasterName, nil
	default:
		opts, err := directOptions(cfg)
		if err != nil {
			return nil, "", err
		}
		return redis.NewClient(opts), opts.Addr, nil
	}
}

//nolint:ireturn // see ConnectRedis.
func newClusterClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	opts := &redis.ClusterOptions{
		Addrs:    normalizeAddrs(cfg.ClusterNodes),
		Password: cfg.Password,
	}
	// A single seed URL is enough for cluster discovery.
	if len(opts.Addrs) == 0 && strings.TrimSpace(cfg.URI) != "" {
		seed, err := directOptions(cfg)
		if err != nil {
			return nil, "", fmt.Errorf("redis cluster seed: %w", err)
		}
		opts.Addrs = []string{seed.Addr}
		opts.Username = seed.Username
		opts.Password = seed.Password
		opts.TLSConfig = seed.TLSConfig
	}
	if len(opts.Addrs) == 0 {
		return nil, "", errors.New("redis cluster mode requires at least one address")
	}
	return redis.NewClusterClient(opts), "cluster:" + strings.Join(opts.Addrs, ","), nil
}

// directOptions accepts either a redis:// URL or a bare host:port.
func directOptions(cfg config.RedisConfig) (*redis.Options, error) {
	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return nil, errors.New("redis requires a URI")
	}
	if !strings.HasPrefix(uri, "redis://") && !strings.HasPrefix(uri, "rediss://") {
		return &redis.Options{Addr: uri, Password: cfg.Password, DB: cfg.DB}, nil
	}
	opts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.Password == "" {
		opts.Password = cfg.Password
	}
	return opts, nil
}

func normalizeAddrs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, addr := range raw {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
