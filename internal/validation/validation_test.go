package validation

import (
	"testing"

	"resonate/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "test_user123", false},
		{"Too Short", "tu", true},
		{"Too Long", "abcdefghijklmnopqrstuvwxyz12345", true},
		{"Illegal Chars", "user@123", true},
		{"Starts Dash", "-user", true},
		{"Ends Underscore", "user_", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type signup struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Confirm  string `json:"confirm_password" validate:"eqfield=Password"`
}

func TestStruct(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      signup
		message string
	}{
		{"Valid", signup{"miles", "m@example.com", "longenough", "longenough"}, ""},
		{"Missing Username", signup{"", "m@example.com", "longenough", "longenough"}, "username is required"},
		{"Bad Email", signup{"miles", "nope", "longenough", "longenough"}, "email must be a valid email address"},
		{"Short Password", signup{"miles", "m@example.com", "short", "short"}, "password must be at least 8 characters long"},
		{"Mismatch", signup{"miles", "m@example.com", "longenough", "different"}, "confirm_password must match password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.in)
			if tt.message == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, models.HasCode(err, models.CodeValidation))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}
