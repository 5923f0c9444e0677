package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupInput struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Nickname string `json:"nickname" validate:"max=4"`
}

func TestFormatValidationErrors_UsesJSONNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(signupInput{Email: "not-an-email", Nickname: "toolong"})
	require.Error(t, err)

	fields := v.FormatValidationErrors(err)
	assert.Equal(t, map[string]string{
		"fullName": "fullName is required",
		"email":    "email must be a valid email address",
		"nickname": "nickname must be at most 4 characters",
	}, fields)
}

func TestHasFailedTag(t *testing.T) {
	v := NewValidator()

	err := v.Validate(signupInput{FullName: "Ann", Email: "ann@"})
	require.Error(t, err)
	assert.True(t, v.HasFailedTag(err, "email"))
	assert.False(t, v.HasFailedTag(err, "required"))

	assert.False(t, v.HasFailedTag(errors.New("plain"), "required"))
	assert.NoError(t, v.Validate(signupInput{FullName: "Ann", Email: "ann@example.com"}))
}
