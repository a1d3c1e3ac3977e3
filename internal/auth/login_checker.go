package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

var _ Checker = (*LoginChecker)(nil)

type Checker interface {
	Owner(ctx context.Context, token string) (string, error)
}

type LoginChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
	now         func() time.Time
}

func NewLoginChecker(ttl time.Duration, redisClient *redis.Client) *LoginChecker {
	return &LoginChecker{
		ttl:         ttl,
		redisClient: redisClient,
		now:         time.Now,
	}
}

// Owner resolves the owner identity of a session token.
// Unknown and expired sessions yield ErrSessionNotFound.
func (c *LoginChecker) Owner(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrSessionNotFound
	}

	cmd := c.redisClient.Get(ctx, sessionKeyPrefix+token)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSessionNotFound
		}
		return "", err
	}

	createdAt, owner, err := decodeSession(cmd.Val())
	if err != nil {
		return "", err
	}

	if c.now().Sub(createdAt) > c.ttl {
		return "", ErrSessionNotFound
	}

	return owner, nil
}
