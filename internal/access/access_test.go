package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teamboard/teamboard/internal/domain"
)

func team(members ...domain.Member) *domain.Team {
	return &domain.Team{ID: "t1", Members: members}
}

func TestIsAdmin(t *testing.T) {
	tm := team(
		domain.Member{UserID: "1", Role: domain.RoleAdmin},
		domain.Member{UserID: "2", Role: domain.RoleEngineer},
	)

	cases := []struct {
		name string
		team *domain.Team
		user *domain.User
		want bool
	}{
		{"admin", tm, &domain.User{ID: "1"}, true},
		{"engineer", tm, &domain.User{ID: "2"}, false},
		{"stranger", tm, &domain.User{ID: "3"}, false},
		{"nil team", nil, &domain.User{ID: "1"}, false},
		{"nil user", tm, nil, false},
		{"empty members", team(), &domain.User{ID: "1"}, false},
		{"empty user id", team(domain.Member{Role: domain.RoleAdmin}), &domain.User{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsAdmin(tc.team, tc.user))
		})
	}
}

func TestIsMemberAndCurrentMemberID(t *testing.T) {
	tm := team(domain.Member{UserID: "7", Role: domain.RoleGuest})

	assert.True(t, IsMember(tm, &domain.User{ID: "7"}))
	assert.False(t, IsMember(tm, &domain.User{ID: "8"}))
	assert.False(t, IsMember(nil, nil))

	assert.Equal(t, "7", CurrentMemberID(tm, &domain.User{ID: "7"}))
	assert.Equal(t, NoMember, CurrentMemberID(tm, &domain.User{ID: "8"}))
	assert.Equal(t, NoMember, CurrentMemberID(nil, &domain.User{ID: "7"}))
}

func TestHasRoleAndLastAdmin(t *testing.T) {
	tm := team(
		domain.Member{UserID: "a", Role: domain.RoleAdmin},
		domain.Member{UserID: "m", Role: domain.RoleManager},
	)

	assert.True(t, HasRole(tm, "m", domain.RoleAdmin, domain.RoleManager))
	assert.False(t, HasRole(tm, "m", domain.RoleAdmin))
	assert.True(t, IsLastAdmin(tm, "a"))
	assert.False(t, IsLastAdmin(tm, "m"))

	tm.Members = append(tm.Members, domain.Member{UserID: "b", Role: domain.RoleAdmin})
	assert.Equal(t, 2, AdminCount(tm))
	assert.False(t, IsLastAdmin(tm, "a"))
}
