package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// UsageLimiterService tracks the per-user daily suggestion quota in Redis.
// It fails open: without Redis (or on Redis errors) requests are allowed.
type UsageLimiterService struct {
	redis      *redis.Client
	dailyLimit int64
}

// LimitExceededError tells the caller the daily quota is spent.
type LimitExceededError struct {
	Message string    `json:"message"`
	Limit   int64     `json:"limit"`
	Used    int64     `json:"used"`
	ResetAt time.Time `json:"reset_at"`
}

func (e *LimitExceededError) Error() string {
	return e.Message
}

// NewUsageLimiterService creates the limiter. redisClient may be nil.
func NewUsageLimiterService(redisClient *redis.Client, dailyLimit int) *UsageLimiterService {
	return &UsageLimiterService{
		redis:      redisClient,
		dailyLimit: int64(dailyLimit),
	}
}

// CheckAndIncrement consumes one unit of today's quota, returning a
// *LimitExceededError when the quota is spent.
func (s *UsageLimiterService) CheckAndIncrement(ctx context.Context, userID string) error {
	if s.redis == nil || s.dailyLimit <= 0 {
		return nil
	}

	day := time.Now().UTC().Format("2006-01-02")
	key := fmt.Sprintf("castor:usage:suggestions:%s:%s", userID, day)

	count, err := s.redis.Incr(ctx, key).Result()
	if err != nil {
		log.Printf("⚠️ [USAGE] Redis INCR failed, allowing request: %v", err)
		return nil
	}
	if count == 1 {
		s.redis.Expire(ctx, key, 24*time.Hour)
	}

	if count > s.dailyLimit {
		resetAt := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
		return &LimitExceededError{
			Message: fmt.Sprintf("Daily suggestion limit reached (%d/%d). Resets at midnight UTC.", count, s.dailyLimit),
			Limit:   s.dailyLimit,
			Used:    count,
			ResetAt: resetAt,
		}
	}
	return nil
}

// NewRedisClient connects to Redis with the pool settings the engine uses.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
