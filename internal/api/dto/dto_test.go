package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/teamboard/teamboard/pkg/util/errorutil"
)

func TestValidateStructReportsJSONFields(t *testing.T) {
	err := ValidateStruct(RegisterRequest{Email: "not-an-email", Password: "short"})
	require.Error(t, err)

	de := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Equal(t, map[string]any{
		"fullName": "is required",
		"email":    "must be a valid email",
		"password": "must be at least 8",
	}, de.Details)
}

func TestValidateStructNestedMembers(t *testing.T) {
	err := ValidateStruct(CreateTeamRequest{
		Name:    "Core",
		Members: []MemberRequest{{UserID: "u1", Role: "owner"}, {Role: "GUEST"}},
	})
	require.Error(t, err)

	details := apperrors.ToDomainError(err).Details
	assert.Contains(t, details, "members[0].role")
	assert.Equal(t, "is required", details["members[1].userId"])
}

func TestValidateStructAccepts(t *testing.T) {
	name := "Platform"
	assert.NoError(t, ValidateStruct(UpdateTeamRequest{Name: &name}))
	assert.NoError(t, ValidateStruct(UpdateTeamRequest{}))
	assert.NoError(t, ValidateStruct(CreateTaskRequest{Title: "x", Type: 2, Priority: 1}))
	assert.NoError(t, ValidateStruct(RoleRequest{Role: "manager"}))

	err := ValidateStruct(CreateTaskRequest{Title: "x", Type: 10, Priority: 1})
	assert.Equal(t, "must be at most 9", apperrors.ToDomainError(err).Details["type"])
}
