package validate

import (
	"errors"
	"testing"

	"github.com/daybook/server/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Username string `json:"username" validate:"required,min=3,max=20"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Mood     string `json:"mood,omitempty" validate:"omitempty,oneof=great good"`
}

func TestStruct_Valid(t *testing.T) {
	v := New()
	require.NoError(t, v.Struct(signup{Username: "alice", Email: "a@example.com", Password: "secret1"}))
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	v := New()
	err := v.Struct(signup{Username: "al", Email: "nope", Password: "123", Mood: "meh"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Equal(t,
		"email must be a valid email address, mood must be one of: great good, password must be at least 6 characters long, username must be at least 3 characters long",
		err.Error())
}
