package memory

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamboard/teamboard/internal/domain"
	"github.com/teamboard/teamboard/internal/repository"
)

func TestUsersRejectDuplicateEmail(t *testing.T) {
	users := New().Users()
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &domain.User{FullName: "Ann", Email: "ann@example.com"}))
	err := users.Create(ctx, &domain.User{FullName: "Other", Email: "ANN@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	_, err = users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestTeamMembership(t *testing.T) {
	teams := New().Teams()
	ctx := context.Background()
	team := &domain.Team{Name: "Core", Members: []domain.Member{{UserID: "a", Role: domain.RoleAdmin}}}
	require.NoError(t, teams.Create(ctx, team))

	require.NoError(t, teams.AddMember(ctx, team.ID, domain.Member{UserID: "b", Role: domain.RoleGuest}))
	assert.ErrorIs(t, teams.AddMember(ctx, team.ID, domain.Member{UserID: "b"}), repository.ErrDuplicate)
	require.NoError(t, teams.UpdateMemberRole(ctx, team.ID, "b", domain.RoleEngineer))
	assert.ErrorIs(t, teams.RemoveMember(ctx, team.ID, "zed"), pgx.ErrNoRows)

	got, err := teams.GetByID(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Member{{UserID: "a", Role: domain.RoleAdmin}, {UserID: "b", Role: domain.RoleEngineer}}, got.Members)

	require.NoError(t, teams.Delete(ctx, team.ID))
	list, err := teams.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTasksAndPosts(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Tasks().Create(ctx, &domain.Task{Title: "a", TeamID: "t1", Assigns: []string{"u1"}}))
	require.NoError(t, s.Tasks().Create(ctx, &domain.Task{Title: "b", Assigns: []string{"u2"}}))

	mine, err := s.Tasks().List(ctx, repository.TaskFilter{AssigneeID: "u1"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	moved, err := s.Tasks().UpdateStatus(ctx, mine[0].ID, domain.TaskStatusCompleted)
	require.NoError(t, err)
	assert.True(t, moved.Completed())

	for _, body := range []string{"one", "two", "three"} {
		require.NoError(t, s.Posts().Create(ctx, &domain.Post{TeamID: "t1", Body: body}))
	}
	posts, err := s.Posts().ListByTeam(ctx, "t1", 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "three", posts[0].Body)
}
