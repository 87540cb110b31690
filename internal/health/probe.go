package health

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Probe is the default Checker: the backend probe is an injected function so
// this package stays free of the backend client types.
type Probe struct {
	Backend func(ctx context.Context) error
	Redis   *redis.Client
}

// PingBackend implements Checker.
func (p Probe) PingBackend(ctx context.Context, timeout time.Duration) error {
	if p.Backend == nil {
		return errors.New("backend probe not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Backend(ctx)
}

// PingRedis implements Checker.
func (p Probe) PingRedis(ctx context.Context, timeout time.Duration) error {
	if p.Redis == nil {
		return errors.New("redis client not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Redis.Ping(ctx).Err()
}
