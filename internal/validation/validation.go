// Package validation provides input validation utilities
package validation

import (
	"regexp"
	"unicode/utf8"

	"quorum/internal/models"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if n := utf8.RuneCountInString(username); n < 3 {
		return models.NewValidationError("username must be at least 3 characters long")
	} else if n > 30 {
		return models.NewValidationError("username must not exceed 30 characters")
	}

	if !usernameRegex.MatchString(username) {
		return models.NewValidationError("username can only contain letters, numbers, underscores, and hyphens")
	}

	if username[0] == '_' || username[0] == '-' || username[len(username)-1] == '_' || username[len(username)-1] == '-' {
		return models.NewValidationError("username cannot start or end with underscore or hyphen")
	}

	return nil
}

// ValidatePassword checks if a password meets minimum requirements
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return models.NewValidationError("password must be at least 8 characters long")
	}
	if len(password) > 128 {
		return models.NewValidationError("password must not exceed 128 characters")
	}
	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return models.NewValidationError("invalid email format")
	}
	if len(email) > 254 {
		return models.NewValidationError("email must not exceed 254 characters")
	}
	return nil
}

// ValidateQuestionTitle enforces the title length window for new questions.
func ValidateQuestionTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n < 10 {
		return models.NewValidationError("title must be at least 10 characters long")
	}
	if n > 200 {
		return models.NewValidationError("title must not exceed 200 characters")
	}
	return nil
}

// ValidateQuestionContent enforces the minimum body length for questions.
func ValidateQuestionContent(content string) error {
	if utf8.RuneCountInString(content) < 20 {
		return models.NewValidationError("content must be at least 20 characters long")
	}
	return nil
}

// ValidateAnswerContent enforces the minimum body length for answers.
func ValidateAnswerContent(content string) error {
	if utf8.RuneCountInString(content) < 2 {
		return models.NewValidationError("answer content is required")
	}
	return nil
}
