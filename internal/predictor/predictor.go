// Package predictor estimates completion dates for open tasks and rates user productivity.
// Remote inference is an optional enhancement: every path degrades to the local heuristic.
package predictor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/teamboard/teamboard/internal/domain"
	"github.com/teamboard/teamboard/internal/inference"
)

// Predictor selects a strategy chain per request.
type Predictor struct {
	api       InferenceAPI
	discovery *Discoverer
	remote    RemoteOptions
	logger    *zap.Logger
}

// Dependencies bundles predictor collaborators. API and Discovery may be nil for local-only mode.
type Dependencies struct {
	API       InferenceAPI
	Discovery *Discoverer
	Remote    RemoteOptions
	Logger    *zap.Logger
}

// New constructs a predictor.
func New(deps Dependencies) *Predictor {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	remote := deps.Remote
	if remote.Logger == nil {
		remote.Logger = logger
	}
	return &Predictor{api: deps.API, discovery: deps.Discovery, remote: remote, logger: logger}
}

// Predict returns one prediction per incomplete task in tasks. It never fails.
func (p *Predictor) Predict(ctx context.Context, score float64, tasks []domain.Task, now time.Time) []domain.Prediction {
	open := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Completed() {
			open = append(open, t)
		}
	}
	if len(open) == 0 {
		return []domain.Prediction{}
	}
	chain := NewChain(p.logger, p.strategies(ctx)...)
	return chain.Run(ctx, Request{Tasks: open, Score: score, Now: now})
}

// PredictForUser scores user over tasks and predicts the user's open assignments.
func (p *Predictor) PredictForUser(ctx context.Context, user domain.User, tasks []domain.Task, now time.Time) (domain.ProductivityProfile, []domain.Prediction) {
	profile := ScoreProductivity(user, tasks)
	assigned := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.AssignedTo(user.ID) {
			assigned = append(assigned, t)
		}
	}
	return profile, p.Predict(ctx, profile.ProductivityScore, assigned, now)
}

func (p *Predictor) strategies(ctx context.Context) []Strategy {
	local := LocalStrategy{}
	if p.api == nil || !p.api.Enabled() || p.discovery == nil {
		return []Strategy{local}
	}
	models := p.discovery.Available(ctx)
	if m, ok := firstOfKind(models, inference.KindTextGeneration); ok {
		return []Strategy{NewTextGenerationStrategy(p.api, m.Name, p.remote), local}
	}
	if m, ok := firstOfKind(models, inference.KindSentiment); ok {
		return []Strategy{NewSentimentStrategy(p.api, m.Name, p.remote), local}
	}
	return []Strategy{local}
}

func firstOfKind(models []inference.Model, kind inference.Kind) (inference.Model, bool) {
	for _, m := range models {
		if m.Kind == kind {
			return m, true
		}
	}
	return inference.Model{}, false
}
