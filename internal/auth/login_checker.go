package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/2beens/gymflow/internal/telemetry/tracing"
)

type LoginChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
}

func NewLoginChecker(ttl time.Duration, redisClient *redis.Client) *LoginChecker {
	return &LoginChecker{
		ttl:         ttl,
		redisClient: redisClient,
	}
}

// IsLogged reports whether the token belongs to a live login session.
// An unknown token is not an error.
func (c *LoginChecker) IsLogged(ctx context.Context, token string) (bool, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "auth.login_checker.is_logged")
	defer span.End()

	cmd := c.redisClient.Get(ctx, sessionKeyPrefix+token)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	createdAtUnix, err := strconv.ParseInt(cmd.Val(), 10, 64)
	if err != nil {
		return false, err
	}
	if createdAtUnix <= 0 {
		return false, nil
	}

	return time.Since(time.Unix(createdAtUnix, 0)) <= c.ttl, nil
}
