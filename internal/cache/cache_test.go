package cache

import (
	"context"
	"testing"
	"time"

	"FinSight/internal/model"
)

func TestTrainingResultKey(t *testing.T) {
	if got := TrainingResultKey("alice"); got != "training_result:alice" {
		t.Errorf("TrainingResultKey = %q", got)
	}
}

func TestMemoryExpiry(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(0)
	m.Now = func() time.Time { return now }
	ctx := context.Background()

	if _, ok, err := m.GetTrainingResult(ctx, "alice"); ok || err != nil {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	want := &model.TrainingSummary{ModelsTrained: []string{model.SubModelRisk}}
	if err := m.SetTrainingResult(ctx, "alice", want); err != nil {
		t.Fatal(err)
	}

	now = now.Add(DefaultTTL - time.Second)
	got, ok, err := m.GetTrainingResult(ctx, "alice")
	if err != nil || !ok || got != want {
		t.Fatalf("before expiry: got=%v ok=%v err=%v", got, ok, err)
	}
	if _, ok, _ := m.GetTrainingResult(ctx, "bob"); ok {
		t.Error("unexpected hit for another user")
	}

	now = now.Add(time.Second)
	if _, ok, _ := m.GetTrainingResult(ctx, "alice"); ok {
		t.Error("entry should have expired")
	}
}

func TestNewRedisDefaults(t *testing.T) {
	r := NewRedis("localhost:6379", "", 0, 0)
	defer r.Close()
	if r.TTL != DefaultTTL {
		t.Errorf("TTL = %v", r.TTL)
	}
}
