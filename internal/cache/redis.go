package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"FinSight/internal/model"
)

// Redis stores training results as JSON with a TTL.
type Redis struct {
	Client redis.Cmdable
	TTL    time.Duration
}

// NewRedis connects to a single Redis node.
func NewRedis(addr, password string, db int, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{
		Client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		TTL:    ttl,
	}
}

// Ping checks that the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

func (r *Redis) GetTrainingResult(ctx context.Context, userID string) (*model.TrainingSummary, bool, error) {
	value, err := r.Client.Get(ctx, TrainingResultKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	summary := &model.TrainingSummary{}
	if err := json.Unmarshal([]byte(value), summary); err != nil {
		return nil, false, fmt.Errorf("unmarshal training result: %w", err)
	}
	return summary, true, nil
}

func (r *Redis) SetTrainingResult(ctx context.Context, userID string, summary *model.TrainingSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal training result: %w", err)
	}
	if err := r.Client.Set(ctx, TrainingResultKey(userID), data, r.TTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the client's connections when it owns any.
func (r *Redis) Close() error {
	if c, ok := r.Client.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
