package predictor

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/teamboard/teamboard/internal/domain"
	"github.com/teamboard/teamboard/internal/inference"
)

const (
	minRemoteDays = 1
	maxRemoteDays = 30

	// textGenerationConfidence is used because generation responses carry no score.
	textGenerationConfidence = 6
)

var firstInteger = regexp.MustCompile(`\d+`)

var sentimentBaseDays = map[inference.Polarity]float64{
	inference.PolarityNegative: 8,
	inference.PolarityPositive: 3,
	inference.PolarityNeutral:  5,
}

// InferenceAPI is the subset of the inference client the estimator needs.
type InferenceAPI interface {
	Enabled() bool
	Probe(ctx context.Context, model inference.Model) error
	GenerateText(ctx context.Context, model, prompt string) (string, error)
	ClassifySentiment(ctx context.Context, model, text string) (inference.Sentiment, error)
}

// SleepFunc waits d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func contextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// remoteStrategy runs one call per task with a pause between calls. Per-task failures are
// logged and the task is left for the next strategy.
type remoteStrategy struct {
	name   string
	limit  int
	delay  time.Duration
	sleep  SleepFunc
	logger *zap.Logger
	call   func(ctx context.Context, task domain.Task, req Request) (days, confidence int, err error)
}

func (s *remoteStrategy) Name() string { return s.name }

func (s *remoteStrategy) Limit() int { return s.limit }

func (s *remoteStrategy) Predict(ctx context.Context, req Request) (map[string]domain.Prediction, error) {
	out := make(map[string]domain.Prediction, len(req.Tasks))
	for i, task := range req.Tasks {
		if i > 0 {
			if err := s.sleep(ctx, s.delay); err != nil {
				return out, err
			}
		}
		days, confidence, err := s.call(ctx, task, req)
		if err != nil {
			s.logger.Debug("remote prediction failed",
				zap.String("strategy", s.name),
				zap.String("task_id", task.ID),
				zap.Error(err))
			continue
		}
		out[task.ID] = buildPrediction(task, days, confidence, s.name, req.Now)
	}
	return out, nil
}

func taskPrompt(task domain.Task) string {
	return fmt.Sprintf(
		"Task: %s. Type: %s. Priority: %s. A developer estimates the number of days to complete this task is",
		task.Title, task.Type, task.Priority)
}

// NewTextGenerationStrategy asks model for a continuation and reads the first integer as days.
func NewTextGenerationStrategy(api InferenceAPI, model string, opts RemoteOptions) Strategy {
	opts = opts.withDefaults()
	return &remoteStrategy{
		name:   "text-generation:" + model,
		limit:  opts.TaskLimit,
		delay:  opts.Delay,
		sleep:  opts.Sleep,
		logger: opts.Logger,
		call: func(ctx context.Context, task domain.Task, _ Request) (int, int, error) {
			text, err := api.GenerateText(ctx, model, taskPrompt(task))
			if err != nil {
				return 0, 0, err
			}
			days, err := ParseDays(text)
			if err != nil {
				return 0, 0, err
			}
			return days, textGenerationConfidence, nil
		},
	}
}

// NewSentimentStrategy maps the sentiment of the task description to a base duration.
func NewSentimentStrategy(api InferenceAPI, model string, opts RemoteOptions) Strategy {
	opts = opts.withDefaults()
	return &remoteStrategy{
		name:   "sentiment:" + model,
		limit:  opts.TaskLimit,
		delay:  opts.Delay,
		sleep:  opts.Sleep,
		logger: opts.Logger,
		call: func(ctx context.Context, task domain.Task, _ Request) (int, int, error) {
			text := fmt.Sprintf("%s (%s task, %s priority)", task.Title, task.Type, task.Priority)
			sentiment, err := api.ClassifySentiment(ctx, model, text)
			if err != nil {
				return 0, 0, err
			}
			return SentimentDays(sentiment), ScaleConfidence(sentiment.Score), nil
		},
	}
}

// ParseDays extracts the first integer in text, clamped to [1,30].
func ParseDays(text string) (int, error) {
	match := firstInteger.FindString(text)
	if match == "" {
		return 0, fmt.Errorf("no day count in %q", text)
	}
	days, err := strconv.Atoi(match)
	if err != nil {
		return maxRemoteDays, nil
	}
	return clampInt(days, minRemoteDays, maxRemoteDays), nil
}

// SentimentDays scales the polarity's base duration: full confidence keeps the base, lower
// confidence stretches it up to twice as long.
func SentimentDays(s inference.Sentiment) int {
	base, ok := sentimentBaseDays[s.Polarity]
	if !ok {
		base = sentimentBaseDays[inference.PolarityNeutral]
	}
	score := math.Min(1, math.Max(0, s.Score))
	return clampInt(int(math.Round(base*(2-score))), minRemoteDays, maxRemoteDays)
}

// ScaleConfidence maps a model score in [0,1] to [1,10].
func ScaleConfidence(score float64) int {
	return clampInt(int(math.Round(score*10)), 1, 10)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RemoteOptions tunes the remote strategies.
type RemoteOptions struct {
	TaskLimit int
	Delay     time.Duration
	Sleep     SleepFunc
	Logger    *zap.Logger
}

func (o RemoteOptions) withDefaults() RemoteOptions {
	if o.TaskLimit <= 0 {
		o.TaskLimit = 5
	}
	if o.Sleep == nil {
		o.Sleep = contextSleep
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}
