package validation

import (
	"errors"
	"strings"
	"testing"

	"quorum/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid simple", "alice", false},
		{"Valid with underscore", "go_fan42", false},
		{"Too short", "ab", true},
		{"Too long", strings.Repeat("a", 31), true},
		{"Illegal characters", "bad name!", true},
		{"Leading underscore", "_alice", true},
		{"Trailing hyphen", "alice-", true},
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

func TestValidateQuestionTitle(t *testing.T) {
	assert.Error(t, ValidateQuestionTitle("too short"))
	assert.NoError(t, ValidateQuestionTitle("How do I profile goroutine leaks?"))
	assert.Error(t, ValidateQuestionTitle(strings.Repeat("x", 201)))
	// Boundary values: [10, 200] inclusive.
	assert.NoError(t, ValidateQuestionTitle(strings.Repeat("x", 10)))
	assert.NoError(t, ValidateQuestionTitle(strings.Repeat("x", 200)))
}

func TestValidateQuestionContent(t *testing.T) {
	assert.Error(t, ValidateQuestionContent("short body"))
	assert.NoError(t, ValidateQuestionContent("This body is comfortably long enough to pass."))
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("short"))
	assert.NoError(t, ValidatePassword("correct-horse-battery"))
	assert.Error(t, ValidatePassword(strings.Repeat("p", 129)))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("dev@example.com"))
	assert.Error(t, ValidateEmail("not-an-email"))
}

// Validator failures must map to a 400 response, not a generic error that the
// handler layer would render as a 500.
func TestValidatorsReturnValidationErrors(t *testing.T) {
	failures := []error{
		ValidateUsername("ab"),
		ValidatePassword("short"),
		ValidateEmail("not-an-email"),
		ValidateQuestionTitle("too short"),
		ValidateQuestionContent("short body"),
		ValidateAnswerContent(""),
	}
	for _, err := range failures {
		require.Error(t, err)
		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr), "got %T: %v", err, err)
		assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
		assert.Equal(t, fiber.StatusBadRequest, appErr.Status)
	}
}
