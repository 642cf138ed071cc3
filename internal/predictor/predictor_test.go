package predictor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamboard/teamboard/internal/domain"
	"github.com/teamboard/teamboard/internal/inference"
)

type fakeAPI struct {
	mu        sync.Mutex
	enabled   bool
	healthy   map[string]bool
	probes    int
	calls     []string
	generate  func(title string) (string, error)
	sentiment func(title string) (inference.Sentiment, error)
}

func (f *fakeAPI) Enabled() bool { return f.enabled }

func (f *fakeAPI) Probe(_ context.Context, m inference.Model) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	if f.healthy[m.Name] {
		return nil
	}
	return errors.New("unavailable")
}

func (f *fakeAPI) GenerateText(_ context.Context, model, prompt string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, model)
	f.mu.Unlock()
	return f.generate(prompt)
}

func (f *fakeAPI) ClassifySentiment(_ context.Context, model, text string) (inference.Sentiment, error) {
	f.mu.Lock()
	f.calls = append(f.calls, model)
	f.mu.Unlock()
	return f.sentiment(text)
}

func openTasks(n int) []domain.Task {
	tasks := make([]domain.Task, 0, n)
	for i := 0; i < n; i++ {
		tasks = append(tasks, domain.Task{
			ID:       fmt.Sprintf("t%d", i),
			Title:    fmt.Sprintf("task %d", i),
			Type:     domain.TaskTypeFeature,
			Priority: domain.TaskPriorityMedium,
			Status:   domain.TaskStatusInProgress,
			Assigns:  []string{"u1"},
		})
	}
	return tasks
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestPredictWithoutRemoteModelsIsLocal(t *testing.T) {
	tasks := append(openTasks(3), domain.Task{ID: "done", Status: domain.TaskStatusCompleted})
	p := New(Dependencies{})

	got := p.Predict(context.Background(), 7, tasks, fixedNow)

	require.Len(t, got, 3)
	for i, pred := range got {
		assert.Equal(t, tasks[i].ID, pred.TaskID)
		assert.Equal(t, LocalConfidence, pred.ConfidenceScore)
	}
}

func TestPredictDisabledAPINeverProbes(t *testing.T) {
	api := &fakeAPI{enabled: false}
	disc := NewDiscoverer(api, Candidates([]string{"gpt2"}, nil), NewMemoryModelCache(0), nil)
	p := New(Dependencies{API: api, Discovery: disc})

	got := p.Predict(context.Background(), 7, openTasks(2), fixedNow)

	assert.Len(t, got, 2)
	assert.Zero(t, api.probes)
}

func TestPredictEmptyDiscoveryFallsBackLocally(t *testing.T) {
	api := &fakeAPI{enabled: true, healthy: map[string]bool{}}
	disc := NewDiscoverer(api, Candidates([]string{"gpt2"}, []string{"sst2"}), NewMemoryModelCache(0), nil)
	p := New(Dependencies{API: api, Discovery: disc})

	got := p.Predict(context.Background(), 7, openTasks(4), fixedNow)

	require.Len(t, got, 4)
	for _, pred := range got {
		assert.Equal(t, LocalConfidence, pred.ConfidenceScore)
	}
	assert.Empty(t, api.calls)
}

func TestTextGenerationLimitAndPerTaskFallback(t *testing.T) {
	api := &fakeAPI{
		enabled: true,
		healthy: map[string]bool{"gpt2": true},
		generate: func(prompt string) (string, error) {
			if containsTitle(prompt, "task 1") {
				return "", errors.New("boom")
			}
			if containsTitle(prompt, "task 2") {
				return "no digits here", nil
			}
			return " roughly 45 days", nil
		},
	}
	disc := NewDiscoverer(api, Candidates([]string{"gpt2"}, nil), NewMemoryModelCache(0), nil)
	p := New(Dependencies{API: api, Discovery: disc, Remote: RemoteOptions{TaskLimit: 5, Sleep: noSleep}})

	got := p.Predict(context.Background(), 7, openTasks(7), fixedNow)

	require.Len(t, got, 7)
	assert.Len(t, api.calls, 5, "at most five tasks go remote")

	byID := map[string]domain.Prediction{}
	for _, pred := range got {
		byID[pred.TaskID] = pred
	}
	assert.Equal(t, 30, byID["t0"].PredictedDurationDays, "clamped to 30")
	assert.Equal(t, textGenerationConfidence, byID["t0"].ConfidenceScore)
	assert.Equal(t, "local-heuristic", byID["t1"].Strategy)
	assert.Equal(t, "local-heuristic", byID["t2"].Strategy)
	assert.Equal(t, "text-generation:gpt2", byID["t3"].Strategy)
	assert.Equal(t, "local-heuristic", byID["t5"].Strategy)
	assert.Equal(t, "local-heuristic", byID["t6"].Strategy)
}

func TestSentimentUsedWhenNoTextModel(t *testing.T) {
	api := &fakeAPI{
		enabled: true,
		healthy: map[string]bool{"sst2": true},
		sentiment: func(string) (inference.Sentiment, error) {
			return inference.Sentiment{Polarity: inference.PolarityNegative, Score: 0.94}, nil
		},
	}
	disc := NewDiscoverer(api, Candidates([]string{"gpt2"}, []string{"sst2"}), NewMemoryModelCache(0), nil)
	p := New(Dependencies{API: api, Discovery: disc, Remote: RemoteOptions{Sleep: noSleep}})

	got := p.Predict(context.Background(), 7, openTasks(1), fixedNow)

	require.Len(t, got, 1)
	assert.Equal(t, "sentiment:sst2", got[0].Strategy)
	assert.Equal(t, 9, got[0].ConfidenceScore)
	assert.Equal(t, 8, got[0].PredictedDurationDays)
}

func TestRemoteStrategySleepsBetweenCalls(t *testing.T) {
	var slept []time.Duration
	sleep := func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	api := &fakeAPI{generate: func(string) (string, error) { return "3", nil }}
	s := NewTextGenerationStrategy(api, "gpt2", RemoteOptions{Delay: 200 * time.Millisecond, Sleep: sleep})

	got, err := s.Predict(context.Background(), Request{Tasks: openTasks(3), Score: 7, Now: fixedNow})

	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 200 * time.Millisecond}, slept)
}

func TestRemoteStrategyStopsOnCancelledContext(t *testing.T) {
	api := &fakeAPI{generate: func(string) (string, error) { return "3", nil }}
	s := NewTextGenerationStrategy(api, "gpt2", RemoteOptions{Delay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := s.Predict(ctx, Request{Tasks: openTasks(3), Now: fixedNow})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, got, 1)
}

func TestChainCoversEveryTaskOnce(t *testing.T) {
	chain := NewChain(nil, LocalStrategy{})
	got := chain.Run(context.Background(), Request{Tasks: openTasks(4), Score: 7, Now: fixedNow})
	assert.Len(t, got, 4)
}

func TestParseDaysAndConfidence(t *testing.T) {
	days, err := ParseDays("It will take 0 days")
	require.NoError(t, err)
	assert.Equal(t, 1, days)

	days, err = ParseDays("about 12, maybe 14")
	require.NoError(t, err)
	assert.Equal(t, 12, days)

	days, err = ParseDays("99999999999999999999999")
	require.NoError(t, err)
	assert.Equal(t, 30, days)

	_, err = ParseDays("soon")
	assert.Error(t, err)

	assert.Equal(t, 1, ScaleConfidence(0.01))
	assert.Equal(t, 10, ScaleConfidence(1))
	assert.Equal(t, 5, SentimentDays(inference.Sentiment{Polarity: inference.PolarityNeutral, Score: 1}))
	assert.Equal(t, 6, SentimentDays(inference.Sentiment{Polarity: inference.PolarityPositive, Score: 0}))
}

func TestDiscoveryCachedAfterFirstProbe(t *testing.T) {
	api := &fakeAPI{enabled: true, healthy: map[string]bool{"gpt2": true}}
	disc := NewDiscoverer(api, Candidates([]string{"gpt2", "bad"}, nil), NewMemoryModelCache(0), nil)

	first := disc.Available(context.Background())
	second := disc.Available(context.Background())

	assert.Equal(t, []inference.Model{{Name: "gpt2", Kind: inference.KindTextGeneration}}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, api.probes)
}

func TestMemoryModelCacheExpires(t *testing.T) {
	now := fixedNow
	cache := NewMemoryModelCache(time.Minute)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Store(context.Background(), []inference.Model{{Name: "gpt2"}}))
	_, ok, _ := cache.Load(context.Background())
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok, _ = cache.Load(context.Background())
	assert.False(t, ok)
}

func TestRedisModelCache(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewRedisModelCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	models := []inference.Model{{Name: "sst2", Kind: inference.KindSentiment}}
	require.NoError(t, cache.Store(ctx, models))

	got, ok, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models, got)

	s.FastForward(2 * time.Minute)
	_, ok, err = cache.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisModelCacheStoresEmptyList(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewRedisModelCache(client, 0)

	require.NoError(t, cache.Store(context.Background(), nil))
	got, ok, err := cache.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestPredictForUserUsesScore(t *testing.T) {
	tasks := openTasks(2)
	tasks[1].Assigns = []string{"other"}
	profile, preds := New(Dependencies{}).PredictForUser(context.Background(), domain.User{ID: "u1"}, tasks, fixedNow)

	assert.Equal(t, 1.0, profile.ProductivityScore)
	require.Len(t, preds, 1)
	assert.Equal(t, "t0", preds[0].TaskID)
	// Feature/Medium = 4 days at score 7; score 1 scales by 7.
	assert.Equal(t, 28, preds[0].PredictedDurationDays)
}

func containsTitle(prompt, title string) bool {
	return strings.Contains(prompt, "Task: "+title+".")
}
