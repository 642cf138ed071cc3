package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/teamboard/teamboard/internal/inference"
)

// ModelCache remembers which candidate models answered during discovery.
type ModelCache interface {
	Load(ctx context.Context) (models []inference.Model, ok bool, err error)
	Store(ctx context.Context, models []inference.Model) error
}

// MemoryModelCache is a process-local ModelCache. A zero TTL never expires.
type MemoryModelCache struct {
	mu       sync.RWMutex
	models   []inference.Model
	storedAt time.Time
	filled   bool
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryModelCache returns an empty cache.
func NewMemoryModelCache(ttl time.Duration) *MemoryModelCache {
	return &MemoryModelCache{ttl: ttl, now: time.Now}
}

// Load implements ModelCache.
func (c *MemoryModelCache) Load(context.Context) ([]inference.Model, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.filled {
		return nil, false, nil
	}
	if c.ttl > 0 && c.now().Sub(c.storedAt) >= c.ttl {
		return nil, false, nil
	}
	return append([]inference.Model(nil), c.models...), true, nil
}

// Store implements ModelCache.
func (c *MemoryModelCache) Store(_ context.Context, models []inference.Model) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models = append([]inference.Model(nil), models...)
	c.storedAt = c.now()
	c.filled = true
	return nil
}

// RedisModelCacheKey is where RedisModelCache keeps the discovered list.
const RedisModelCacheKey = "teamboard:predictor:models"

// RedisModelCache shares discovery results between processes.
type RedisModelCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisModelCache wraps client. A zero TTL stores without expiry.
func NewRedisModelCache(client *redis.Client, ttl time.Duration) *RedisModelCache {
	return &RedisModelCache{client: client, ttl: ttl}
}

// Load implements ModelCache.
func (c *RedisModelCache) Load(ctx context.Context) ([]inference.Model, bool, error) {
	raw, err := c.client.Get(ctx, RedisModelCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var models []inference.Model
	if err := json.Unmarshal(raw, &models); err != nil {
		return nil, false, err
	}
	return models, true, nil
}

// Store implements ModelCache.
func (c *RedisModelCache) Store(ctx context.Context, models []inference.Model) error {
	if models == nil {
		models = []inference.Model{}
	}
	raw, err := json.Marshal(models)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, RedisModelCacheKey, raw, c.ttl).Err()
}

// Discoverer probes candidate models once and serves the cached answer afterwards.
type Discoverer struct {
	api        InferenceAPI
	candidates []inference.Model
	cache      ModelCache
	logger     *zap.Logger
}

// NewDiscoverer builds a discoverer over candidates.
func NewDiscoverer(api InferenceAPI, candidates []inference.Model, cache ModelCache, logger *zap.Logger) *Discoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{api: api, candidates: candidates, cache: cache, logger: logger}
}

// Available returns the models that answered a probe. It never fails: cache and probe
// errors degrade to an empty list.
func (d *Discoverer) Available(ctx context.Context) []inference.Model {
	if d == nil || d.api == nil || !d.api.Enabled() {
		return nil
	}
	if models, ok, err := d.cache.Load(ctx); err != nil {
		d.logger.Warn("model cache load failed", zap.Error(err))
	} else if ok {
		return models
	}

	available := []inference.Model{}
	for _, m := range d.candidates {
		if err := d.api.Probe(ctx, m); err != nil {
			d.logger.Debug("model probe failed", zap.String("model", m.Name), zap.Error(err))
			continue
		}
		available = append(available, m)
	}
	if ctx.Err() != nil {
		return available
	}
	if err := d.cache.Store(ctx, available); err != nil {
		d.logger.Warn("model cache store failed", zap.Error(err))
	}
	d.logger.Info("model discovery finished",
		zap.Int("candidates", len(d.candidates)),
		zap.Int("available", len(available)))
	return available
}

// Candidates builds the candidate list from configured model names.
func Candidates(textModels, sentimentModels []string) []inference.Model {
	out := make([]inference.Model, 0, len(textModels)+len(sentimentModels))
	for _, name := range textModels {
		out = append(out, inference.Model{Name: name, Kind: inference.KindTextGeneration})
	}
	for _, name := range sentimentModels {
		out = append(out, inference.Model{Name: name, Kind: inference.KindSentiment})
	}
	return out
}
