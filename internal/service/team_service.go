package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/teamboard/teamboard/internal/access"
	"github.com/teamboard/teamboard/internal/domain"
	"github.com/teamboard/teamboard/internal/events"
	"github.com/teamboard/teamboard/internal/repository"
	"github.com/teamboard/teamboard/internal/teamstate"
	apperrors "github.com/teamboard/teamboard/pkg/util/errorutil"
)

// TeamView selects which relationship view List returns.
type TeamView string

const (
	TeamViewAll     TeamView = "all"
	TeamViewCreated TeamView = "created"
	TeamViewJoined  TeamView = "joined"
	TeamViewMine    TeamView = "mine"
)

// ParseTeamView validates a view name; empty means mine.
func ParseTeamView(s string) (TeamView, error) {
	switch v := TeamView(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return TeamViewMine, nil
	case TeamViewAll, TeamViewCreated, TeamViewJoined, TeamViewMine:
		return v, nil
	default:
		return "", apperrors.NewValidationError("invalid team view", map[string]any{"view": s})
	}
}

const defaultPostLimit = 50

// TeamService coordinates team workflows. Repositories are written first; the in-memory
// store is only mutated after the write succeeds.
type TeamService struct {
	teams      repository.TeamRepository
	users      repository.UserRepository
	tasks      repository.TaskRepository
	posts      repository.PostRepository
	store      *teamstate.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TeamDependencies bundles collaborators for the team service.
type TeamDependencies struct {
	TeamRepo   repository.TeamRepository
	UserRepo   repository.UserRepository
	TaskRepo   repository.TaskRepository
	PostRepo   repository.PostRepository
	Store      *teamstate.Store
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewTeamService constructs the service.
func NewTeamService(deps TeamDependencies) *TeamService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := deps.Store
	if store == nil {
		store = teamstate.New()
	}
	return &TeamService{
		teams:      deps.TeamRepo,
		users:      deps.UserRepo,
		tasks:      deps.TaskRepo,
		posts:      deps.PostRepo,
		store:      store,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Store exposes the read model for route-level authorization.
func (s *TeamService) Store() *teamstate.Store {
	return s.store
}

// Load fills the store from the repositories.
func (s *TeamService) Load(ctx context.Context) error {
	teams, err := s.teams.List(ctx)
	if err != nil {
		return apperrors.MapError(err)
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return apperrors.MapError(err)
	}
	summaries := make([]domain.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, *users[i].Summary())
	}
	s.store.SetUsers(summaries)
	s.store.Replace(teams)
	s.logger.Info("team store loaded", zap.Int("teams", len(teams)), zap.Int("users", len(users)))
	return nil
}

// List returns the requested view for actor.
func (s *TeamService) List(actor *domain.User, view TeamView) []domain.Team {
	id := actor.ID
	switch view {
	case TeamViewAll:
		return s.store.All()
	case TeamViewCreated:
		return s.store.Created(id)
	case TeamViewJoined:
		return s.store.Joined(id)
	default:
		return s.store.ForUser(id)
	}
}

// TeamDetail is a team opened by a user, with the caller's relationship to it.
type TeamDetail struct {
	Team            *domain.Team           `json:"team"`
	Members         []teamstate.MemberView `json:"members"`
	IsAdmin         bool                   `json:"isAdmin"`
	IsMember        bool                   `json:"isMember"`
	CurrentMemberID string                 `json:"currentMemberId"`
}

// Open makes the team actor's detail view and returns it.
func (s *TeamService) Open(actor *domain.User, teamID string) (*TeamDetail, error) {
	team, err := s.team(teamID)
	if err != nil {
		return nil, err
	}
	s.store.SetOneTeam(actor.ID, team)
	return s.detail(actor)
}

// Current returns actor's open team.
func (s *TeamService) Current(actor *domain.User) (*TeamDetail, error) {
	if _, ok := s.store.Current(actor.ID); !ok {
		return nil, apperrors.NewNotFound("open team", nil)
	}
	return s.detail(actor)
}

func (s *TeamService) detail(actor *domain.User) (*TeamDetail, error) {
	team, ok := s.store.Current(actor.ID)
	if !ok {
		return nil, apperrors.NewNotFound("open team", nil)
	}
	return &TeamDetail{
		Team:            team,
		Members:         s.store.CurrentMembers(actor.ID),
		IsAdmin:         access.IsAdmin(team, actor),
		IsMember:        access.IsMember(team, actor),
		CurrentMemberID: access.CurrentMemberID(team, actor),
	}, nil
}

// Close clears actor's detail view.
func (s *TeamService) Close(actor *domain.User) {
	s.store.SetOneTeam(actor.ID, nil)
}

// MemberInput names a user to add and the role to give them.
type MemberInput struct {
	UserID string
	Role   string
}

// CreateTeamInput describes team creation payload.
type CreateTeamInput struct {
	Name           string
	Description    string
	PictureProfile string
	Members        []MemberInput
}

// Create makes actor the sole ADMIN of a new team with the requested members.
func (s *TeamService) Create(ctx context.Context, actor *domain.User, input CreateTeamInput) (*domain.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("team name is required", map[string]any{"name": "required"})
	}

	team := &domain.Team{
		Name:           name,
		Description:    strings.TrimSpace(input.Description),
		PictureProfile: strings.TrimSpace(input.PictureProfile),
		CreatedBy:      actor.ID,
		Members:        []domain.Member{{UserID: actor.ID, Role: domain.RoleAdmin, User: actor.Summary()}},
	}
	seen := map[string]bool{actor.ID: true}
	for _, in := range input.Members {
		if seen[in.UserID] {
			continue
		}
		role, err := parseMemberRole(in.Role)
		if err != nil {
			return nil, err
		}
		if role == domain.RoleAdmin {
			return nil, apperrors.NewValidationError("only the creator is ADMIN of a new team",
				map[string]any{"user_id": in.UserID})
		}
		user, err := s.lookupUser(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		seen[in.UserID] = true
		team.Members = append(team.Members, domain.Member{UserID: user.ID, Role: role, User: user.Summary()})
	}

	if err := s.teams.Create(ctx, team); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.store.AddTeam(*team)
	s.publishEvent(ctx, events.Event{
		Type:       events.EventTeamCreated,
		TeamID:     team.ID,
		TeamName:   team.Name,
		ActorID:    actor.ID,
		Recipients: memberIDs(team, actor.ID),
	})
	return team.Clone(), nil
}

// UpdateTeamInput carries optional field changes.
type UpdateTeamInput struct {
	Name           *string
	Description    *string
	PictureProfile *string
}

// Update applies field changes. ADMIN or MANAGER only.
func (s *TeamService) Update(ctx context.Context, actor *domain.User, teamID string, input UpdateTeamInput) (*domain.Team, error) {
	team, err := s.team(teamID)
	if err != nil {
		return nil, err
	}
	if !access.HasRole(team, actor.ID, domain.RoleAdmin, domain.RoleManager) {
		return nil, apperrors.NewForbidden("only admins and managers can edit the team")
	}
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			return nil, apperrors.NewValidationError("team name cannot be empty", map[string]any{"name": "required"})
		}
		input.Name = &trimmed
	}

	patch := domain.TeamPatch{Name: input.Name, Description: input.Description, PictureProfile: input.PictureProfile}
	if patch.IsEmpty() {
		return team, nil
	}
	updated := team.Clone()
	patch.Apply(updated)
	if err := s.teams.Update(ctx, updated); err != nil {
		return nil, apperrors.MapError(err)
	}
	fields := patch.Fields()
	patch.UpdatedAt = &updated.UpdatedAt
	s.store.UpdateTeam(teamID, patch)

	s.publishEvent(ctx, events.Event{
		Type:       events.EventTeamUpdated,
		TeamID:     teamID,
		TeamName:   updated.Name,
		ActorID:    actor.ID,
		Recipients: memberIDs(updated, actor.ID),
		Payload:    events.TeamUpdatedPayload{Fields: fields},
	})
	return s.team(teamID)
}

// Delete removes the team. ADMIN only.
func (s *TeamService) Delete(ctx context.Context, actor *domain.User, teamID string) error {
	team, err := s.team(teamID)
	if err != nil {
		return err
	}
	if !access.IsAdmin(team, actor) {
		return apperrors.NewForbidden("only admins can delete the team")
	}
	if err := s.teams.Delete(ctx, teamID); err != nil {
		return apperrors.MapError(err)
	}
	s.store.DeleteTeam(teamID)
	s.publishEvent(ctx, events.Event{
		Type:       events.EventTeamDeleted,
		TeamID:     teamID,
		TeamName:   team.Name,
		ActorID:    actor.ID,
		Recipients: memberIDs(team, actor.ID),
	})
	return nil
}

// AddMember adds a user to the team. ADMIN or MANAGER only; only ADMINs may grant ADMIN.
func (s *TeamService) AddMember(ctx context.Context, actor *domain.User, teamID string, input MemberInput) (*domain.Team, error) {
	team, err := s.team(teamID)
	if err != nil {
		return nil, err
	}
	if !access.HasRole(team, actor.ID, domain.RoleAdmin, domain.RoleManager) {
		return nil, apperrors.NewForbidden("only admins and managers can add members")
	}
	role, err := parseMemberRole(input.Role)
	if err != nil {
		return nil, err
	}
	if role == domain.RoleAdmin && !access.IsAdmin(team, actor) {
		return nil, apperrors.NewForbidden("only admins can grant the ADMIN role")
	}
	if _, exists := access.RoleOf(team, input.UserID); exists {
		return nil, apperrors.NewConflict("user is already a member", map[string]any{"user_id": input.UserID})
	}
	user, err := s.lookupUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	member := domain.Member{UserID: user.ID, Role: role, User: user.Summary()}
	if err := s.teams.AddMember(ctx, teamID, member); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.store.SetUsers([]domain.UserSummary{*user.Summary()})
	s.store.AddMember(teamID, member)

	s.publishEvent(ctx, events.Event{
		Type:       events.EventMemberAdded,
		TeamID:     teamID,
		TeamName:   team.Name,
		ActorID:    actor.ID,
		Recipients: append(memberIDs(team, actor.ID), user.ID),
		Payload:    events.MemberPayload{UserID: user.ID, Role: role},
	})
	return s.team(teamID)
}

// RemoveMember removes userID from the team. Members may leave; removing someone else
// needs ADMIN. The last ADMIN can never be removed.
func (s *TeamService) RemoveMember(ctx context.Context, actor *domain.User, teamID, userID string) (*domain.Team, error) {
	team, err := s.team(teamID)
	if err != nil {
		return nil, err
	}
	role, isMember := access.RoleOf(team, userID)
	if !isMember {
		return nil, apperrors.NewNotFound("member", map[string]any{"user_id": userID})
	}
	if userID != actor.ID && !access.IsAdmin(team, actor) {
		return nil, apperrors.NewForbidden("only admins can remove other members")
	}
	if access.IsLastAdmin(team, userID) {
		return nil, apperrors.NewConflict("a team must keep at least one ADMIN", map[string]any{"user_id": userID})
	}

	if err := s.teams.RemoveMember(ctx, teamID, userID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.store.RemoveMember(teamID, userID)
	if open, ok := s.store.Current(userID); ok && open.ID == teamID {
		s.store.SetOneTeam(userID, nil)
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventMemberRemoved,
		TeamID:     teamID,
		TeamName:   team.Name,
		ActorID:    actor.ID,
		Recipients: memberIDs(team, actor.ID),
		Payload:    events.MemberPayload{UserID: userID, OldRole: role},
	})
	return s.team(teamID)
}

// UpdateMemberRole changes a member's role. ADMIN only; the last ADMIN cannot be demoted.
func (s *TeamService) UpdateMemberRole(ctx context.Context, actor *domain.User, teamID, userID, roleName string) (*domain.Team, error) {
	team, err := s.team(teamID)
	if err != nil {
		return nil, err
	}
	if !access.IsAdmin(team, actor) {
		return nil, apperrors.NewForbidden("only admins can change roles")
	}
	role, err := parseMemberRole(roleName)
	if err != nil {
		return nil, err
	}
	oldRole, isMember := access.RoleOf(team, userID)
	if !isMember {
		return nil, apperrors.NewNotFound("member", map[string]any{"user_id": userID})
	}
	if oldRole == role {
		return team, nil
	}
	if access.IsLastAdmin(team, userID) {
		return nil, apperrors.NewConflict("a team must keep at least one ADMIN", map[string]any{"user_id": userID})
	}

	if err := s.teams.UpdateMemberRole(ctx, teamID, userID, role); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.store.UpdateMemberRole(teamID, userID, role)

	s.publishEvent(ctx, events.Event{
		Type:       events.EventMemberRoleChanged,
		TeamID:     teamID,
		TeamName:   team.Name,
		ActorID:    actor.ID,
		Recipients: memberIDs(team, actor.ID),
		Payload:    events.MemberPayload{UserID: userID, Role: role, OldRole: oldRole},
	})
	return s.team(teamID)
}

// TeamStats summarizes a team's membership and task progress.
type TeamStats struct {
	TeamID         string              `json:"teamId"`
	MemberCount    int                 `json:"memberCount"`
	Roles          map[domain.Role]int `json:"roles"`
	TotalTasks     int                 `json:"totalTasks"`
	TasksByStatus  map[string]int      `json:"tasksByStatus"`
	CompletedTasks int                 `json:"completedTasks"`
	CompletionRate float64             `json:"completionRate"`
	OverdueTasks   int                 `json:"overdueTasks"`
}

var statusNames = map[domain.TaskStatus]string{
	domain.TaskStatusPending:    "pending",
	domain.TaskStatusInProgress: "inProgress",
	domain.TaskStatusReview:     "review",
	domain.TaskStatusCompleted:  "completed",
}

// Stats computes TeamStats. Members only.
func (s *TeamService) Stats(ctx context.Context, actor *domain.User, teamID string) (*TeamStats, error) {
	team, err := s.memberTeam(actor, teamID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.List(ctx, repository.TaskFilter{TeamID: teamID})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	stats := &TeamStats{
		TeamID:        teamID,
		MemberCount:   len(team.Members),
		Roles:         map[domain.Role]int{},
		TotalTasks:    len(tasks),
		TasksByStatus: map[string]int{},
	}
	for _, m := range team.Members {
		stats.Roles[m.Role]++
	}
	now := s.now()
	for _, t := range tasks {
		stats.TasksByStatus[statusNames[t.Status]]++
		if t.Completed() {
			stats.CompletedTasks++
			continue
		}
		if t.EndDate != nil && t.EndDate.Before(now) {
			stats.OverdueTasks++
		}
	}
	if stats.TotalTasks > 0 {
		stats.CompletionRate = float64(stats.CompletedTasks) / float64(stats.TotalTasks)
	}
	return stats, nil
}

// ListPosts returns the newest posts first. Members only.
func (s *TeamService) ListPosts(ctx context.Context, actor *domain.User, teamID string, limit int) ([]domain.Post, error) {
	if _, err := s.memberTeam(actor, teamID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > defaultPostLimit {
		limit = defaultPostLimit
	}
	posts, err := s.posts.ListByTeam(ctx, teamID, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return posts, nil
}

// CreatePost adds a message to the team feed. Members only.
func (s *TeamService) CreatePost(ctx context.Context, actor *domain.User, teamID, body string) (*domain.Post, error) {
	team, err := s.memberTeam(actor, teamID)
	if err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("post body is required", map[string]any{"body": "required"})
	}
	post := &domain.Post{TeamID: teamID, AuthorID: actor.ID, Body: body}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:       events.EventPostCreated,
		TeamID:     teamID,
		TeamName:   team.Name,
		ActorID:    actor.ID,
		Recipients: memberIDs(team, actor.ID),
		Payload:    events.PostCreatedPayload{PostID: post.ID, BodyPreview: stringPreview(body, 80)},
	})
	return post, nil
}

func (s *TeamService) team(id string) (*domain.Team, error) {
	team, ok := s.store.Get(id)
	if !ok {
		return nil, apperrors.NewNotFound("team", map[string]any{"team_id": id})
	}
	return team, nil
}

func (s *TeamService) memberTeam(actor *domain.User, teamID string) (*domain.Team, error) {
	team, err := s.team(teamID)
	if err != nil {
		return nil, err
	}
	if !access.IsMember(team, actor) {
		return nil, apperrors.NewForbidden("team membership required")
	}
	return team, nil
}

func (s *TeamService) lookupUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *TeamService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func parseMemberRole(name string) (domain.Role, error) {
	if strings.TrimSpace(name) == "" {
		return domain.RoleGuest, nil
	}
	role, err := domain.ParseRole(name)
	if err != nil {
		return "", apperrors.NewValidationError("invalid role", map[string]any{"role": name})
	}
	return role, nil
}

// memberIDs lists the team's member ids except the excluded ones.
func memberIDs(team *domain.Team, exclude ...string) []string {
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	ids := make([]string, 0, len(team.Members))
	for _, m := range team.Members {
		if !skip[m.UserID] {
			ids = append(ids, m.UserID)
		}
	}
	return ids
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
