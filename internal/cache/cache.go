// Package cache keeps the latest training result of each user for a limited time.
package cache

import (
	"context"
	"sync"
	"time"

	"FinSight/internal/model"
)

// DefaultTTL is how long a training result stays cached.
const DefaultTTL = 24 * time.Hour

// Cache stores training summaries keyed by user.
type Cache interface {
	// GetTrainingResult reports ok=false on a miss.
	GetTrainingResult(ctx context.Context, userID string) (summary *model.TrainingSummary, ok bool, err error)
	SetTrainingResult(ctx context.Context, userID string, summary *model.TrainingSummary) error
}

// TrainingResultKey is the cache key of a user's training result.
func TrainingResultKey(userID string) string {
	return "training_result:" + userID
}

type entry struct {
	summary   *model.TrainingSummary
	expiresAt time.Time
}

// Memory is an in-process Cache used when Redis is not configured.
type Memory struct {
	TTL time.Duration
	Now func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{TTL: ttl, Now: time.Now, entries: make(map[string]entry)}
}

func (m *Memory) GetTrainingResult(_ context.Context, userID string) (*model.TrainingSummary, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := TrainingResultKey(userID)
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !m.Now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.summary, true, nil
}

func (m *Memory) SetTrainingResult(_ context.Context, userID string, summary *model.TrainingSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[TrainingResultKey(userID)] = entry{summary: summary, expiresAt: m.Now().Add(m.TTL)}
	return nil
}
