package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrNotLoggedIn = errors.New("not logged in")

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

// GetLoggedSession returns the session behind the given token,
// or ErrNotLoggedIn if the token is unknown or expired.
func (c *LoginChecker) GetLoggedSession(ctx context.Context, token string) (*Session, error) {
	sessionKey := sessionKeyPrefix + token
	sessionVal, err := c.redisClient.Get(ctx, sessionKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotLoggedIn
		}
		return nil, err
	}

	session, err := parseSession(sessionVal)
	if err != nil {
		return nil, err
	}

	if time.Since(session.CreatedAt) > c.ttl {
		return nil, ErrNotLoggedIn
	}

	return session, nil
}
