package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginGuard keeps admin login attempt counters server-side, keyed by client
// IP. The browser-side counter it replaces was reset by a page reload.
type LoginGuard struct {
	Redis  *redis.Client
	Limit  int
	Window time.Duration
}

func (g *LoginGuard) key(ip string) string {
	return fmt.Sprintf("login:attempts:%s", ip)
}

// Allow reports whether another attempt from this IP is permitted.
func (g *LoginGuard) Allow(ctx context.Context, ip string) (bool, error) {
	count, err := g.Redis.Get(ctx, g.key(ip)).Int()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, WrapError(err, "login guard")
	}
	return count < g.limit(), nil
}

// RecordFailure bumps the counter and starts the window on the first failure.
func (g *LoginGuard) RecordFailure(ctx context.Context, ip string) error {
	key := g.key(ip)
	count, err := g.Redis.Incr(ctx, key).Result()
	if err != nil {
		return WrapError(err, "login guard")
	}
	if count == 1 {
		window := g.Window
		if window <= 0 {
			window = 15 * time.Minute
		}
		if err := g.Redis.Expire(ctx, key, window).Err(); err != nil {
			return WrapError(err, "login guard")
		}
	}
	return nil
}

// Reset clears the counter after a successful login.
func (g *LoginGuard) Reset(ctx context.Context, ip string) error {
	return WrapError(g.Redis.Del(ctx, g.key(ip)).Err(), "login guard")
}

func (g *LoginGuard) limit() int {
	if g.Limit <= 0 {
		return 5
	}
	return g.Limit
}
