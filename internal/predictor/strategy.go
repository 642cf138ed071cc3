package predictor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/teamboard/teamboard/internal/domain"
)

// Request is the input handed to each strategy.
type Request struct {
	Tasks []domain.Task
	Score float64
	Now   time.Time
}

// Strategy produces predictions for some or all of the requested tasks. Tasks missing from
// the returned map are handed to the next strategy in the chain.
type Strategy interface {
	Name() string
	// Limit caps how many tasks the strategy is offered; zero means no cap.
	Limit() int
	Predict(ctx context.Context, req Request) (map[string]domain.Prediction, error)
}

// Chain tries strategies in order and records which one served each task.
type Chain struct {
	strategies []Strategy
	logger     *zap.Logger
}

// NewChain builds a chain. The last strategy should cover every task it is given.
func NewChain(logger *zap.Logger, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{strategies: strategies, logger: logger}
}

// Run returns one prediction per task that some strategy covered, in task order.
func (c *Chain) Run(ctx context.Context, req Request) []domain.Prediction {
	served := make(map[string]domain.Prediction, len(req.Tasks))
	remaining := req.Tasks

	for _, s := range c.strategies {
		if len(remaining) == 0 {
			break
		}
		offered := remaining
		if limit := s.Limit(); limit > 0 && len(offered) > limit {
			offered = offered[:limit]
		}

		sub := req
		sub.Tasks = offered
		got, err := s.Predict(ctx, sub)
		if err != nil {
			c.logger.Debug("prediction strategy skipped",
				zap.String("strategy", s.Name()),
				zap.Error(err))
		}

		next := make([]domain.Task, 0, len(remaining))
		for _, task := range remaining {
			if p, ok := got[task.ID]; ok {
				served[task.ID] = p
				c.logger.Debug("prediction served",
					zap.String("task_id", task.ID),
					zap.String("strategy", s.Name()))
				continue
			}
			next = append(next, task)
		}
		remaining = next
	}

	out := make([]domain.Prediction, 0, len(served))
	counts := map[string]int{}
	for _, task := range req.Tasks {
		if p, ok := served[task.ID]; ok {
			out = append(out, p)
			counts[p.Strategy]++
		}
	}
	c.logger.Info("predictions computed",
		zap.Int("tasks", len(req.Tasks)),
		zap.Any("strategies", counts))
	return out
}
