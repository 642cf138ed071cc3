package service

import (
	"context"
	"time"

	"github.com/teamboard/teamboard/internal/access"
	"github.com/teamboard/teamboard/internal/domain"
	"github.com/teamboard/teamboard/internal/observability"
	"github.com/teamboard/teamboard/internal/predictor"
	"github.com/teamboard/teamboard/internal/repository"
	"github.com/teamboard/teamboard/internal/series"
	"github.com/teamboard/teamboard/internal/teamstate"
	apperrors "github.com/teamboard/teamboard/pkg/util/errorutil"
)

// DashboardService derives productivity, predictions and the weekly series for a user.
type DashboardService struct {
	users     *UserService
	tasks     repository.TaskRepository
	teams     *teamstate.Store
	predictor *predictor.Predictor
	metrics   *observability.Metrics
	now       func() time.Time
}

// DashboardDependencies bundles collaborators.
type DashboardDependencies struct {
	Users     *UserService
	TaskRepo  repository.TaskRepository
	Teams     *teamstate.Store
	Predictor *predictor.Predictor
	Metrics   *observability.Metrics
	Now       func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	p := deps.Predictor
	if p == nil {
		p = predictor.New(predictor.Dependencies{})
	}
	return &DashboardService{
		users:     deps.Users,
		tasks:     deps.TaskRepo,
		teams:     deps.Teams,
		predictor: p,
		metrics:   deps.Metrics,
		now:       now,
	}
}

// PredictionReport pairs the profile with per-task predictions.
type PredictionReport struct {
	Profile     domain.ProductivityProfile `json:"profile"`
	Predictions []domain.Prediction        `json:"predictions"`
}

// SeriesReport is the weekly chart with the inputs it was built from.
type SeriesReport struct {
	Profile     domain.ProductivityProfile `json:"profile"`
	Predictions []domain.Prediction        `json:"predictions"`
	Points      []series.Point             `json:"points"`
}

// Productivity scores userID over their assigned tasks.
func (s *DashboardService) Productivity(ctx context.Context, actor *domain.User, userID string) (domain.ProductivityProfile, error) {
	user, tasks, err := s.load(ctx, actor, userID)
	if err != nil {
		return domain.ProductivityProfile{}, err
	}
	return predictor.ScoreProductivity(*user, tasks), nil
}

// Predictions estimates completion for userID's open tasks.
func (s *DashboardService) Predictions(ctx context.Context, actor *domain.User, userID string) (*PredictionReport, error) {
	user, tasks, err := s.load(ctx, actor, userID)
	if err != nil {
		return nil, err
	}
	profile, preds := s.predictor.PredictForUser(ctx, *user, tasks, s.now())
	s.record(preds)
	return &PredictionReport{Profile: profile, Predictions: preds}, nil
}

// Series builds the weekly timeline for userID.
func (s *DashboardService) Series(ctx context.Context, actor *domain.User, userID string) (*SeriesReport, error) {
	user, tasks, err := s.load(ctx, actor, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	profile, preds := s.predictor.PredictForUser(ctx, *user, tasks, now)
	s.record(preds)
	points := series.Build(series.Input{
		Tasks:       tasks,
		Predictions: preds,
		Score:       profile.ProductivityScore,
		Today:       now,
	})
	return &SeriesReport{Profile: profile, Predictions: preds, Points: points}, nil
}

func (s *DashboardService) load(ctx context.Context, actor *domain.User, userID string) (*domain.User, []domain.Task, error) {
	if err := s.authorize(actor, userID); err != nil {
		return nil, nil, err
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	tasks, err := s.tasks.List(ctx, repository.TaskFilter{AssigneeID: userID})
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return user, tasks, nil
}

// authorize lets a user read their own dashboard, and a team ADMIN or MANAGER read
// the dashboards of that team's members.
func (s *DashboardService) authorize(actor *domain.User, userID string) error {
	if actor == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if actor.ID == userID {
		return nil
	}
	if s.teams != nil {
		target := &domain.User{ID: userID}
		for _, team := range s.teams.ForUser(actor.ID) {
			if access.IsMember(&team, target) && access.HasRole(&team, actor.ID, domain.RoleAdmin, domain.RoleManager) {
				return nil
			}
		}
	}
	return apperrors.NewForbidden("only the user or a team admin or manager can view this dashboard")
}

func (s *DashboardService) record(preds []domain.Prediction) {
	byStrategy := map[string]int{}
	for _, p := range preds {
		byStrategy[p.Strategy]++
	}
	s.metrics.RecordPredictions(byStrategy)
}
