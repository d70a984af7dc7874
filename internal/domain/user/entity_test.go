package user

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/achievement-hub/internal/domain/shared"
)

func TestFactory_Create(t *testing.T) {
	f := NewFactory()

	tests := []struct {
		role string
		want Role
	}{
		{"student", RoleStudent},
		{"Teacher", RoleTeacher},
		{" VISITOR ", RoleVisitor},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			u, err := f.Create(tt.role, "Joao")
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.Role)
			assert.Equal(t, "Joao", u.Name)
			_, err = uuid.Parse(u.ID)
			assert.NoError(t, err)
			assert.Equal(t, u.ID, u.State().Owner().ID)
		})
	}
}

func TestFactory_Create_UnknownRole(t *testing.T) {
	_, err := NewFactory().Create("admin", "root")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrUnknownRole))
	assert.True(t, shared.IsValidation(err))
}

func TestNewUser_EmptyName(t *testing.T) {
	_, err := NewUser(RoleStudent, "   ")
	assert.True(t, errors.Is(err, shared.ErrEmptyName))
}

func TestUser_PointsAndString(t *testing.T) {
	u, err := NewUser(RoleStudent, "Maria")
	require.NoError(t, err)

	require.NoError(t, u.AddPoints(90))
	assert.Equal(t, 90, u.Points())
	assert.Equal(t, "Student(name=Maria, points=90)", u.String())
	assert.Error(t, u.AddPoints(-5))
	assert.Empty(t, u.Achievements())
}

func TestUser_Password(t *testing.T) {
	u, err := NewUser(RoleTeacher, "Maria")
	require.NoError(t, err)
	assert.True(t, errors.Is(u.CheckPassword("anything"), shared.ErrBadPassword))
	assert.True(t, errors.Is(u.CheckPassword(""), shared.ErrBadPassword))

	require.NoError(t, u.SetPassword("s3cret"))
	assert.True(t, u.HasPassword())
	assert.NoError(t, u.CheckPassword("s3cret"))
	assert.True(t, errors.Is(u.CheckPassword("wrong"), shared.ErrBadPassword))
	assert.Error(t, u.SetPassword(""))
}
