package service

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/sakif/mentorship-platform/internal/apperror"
	"github.com/sakif/mentorship-platform/internal/auth"
	"github.com/sakif/mentorship-platform/internal/model"
)

// Validation limits for account and profile fields.
const (
	MinNameLength     = 2
	MaxNameLength     = 50
	MinPasswordLength = 6
	MaxPasswordLength = auth.MaxPasswordBytes
	MaxBioLength      = 500
	MinTagLength      = 2
	MaxTagLength      = 50
	MaxTags           = 20
)

func validateName(field, value string) error {
	n := utf8.RuneCountInString(value)
	if n < MinNameLength || n > MaxNameLength {
		return apperror.ValidationFailed(field,
			fmt.Sprintf("%s must be between %d and %d characters", field, MinNameLength, MaxNameLength))
	}
	return nil
}

// normalizeEmail lower-cases and trims the address and rejects anything that
// is not a bare address ("Name <a@b>" is refused).
func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.ValidationFailed("email", "email must be a valid address")
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be between %d and %d characters", MinPasswordLength, MaxPasswordLength))
	}
	return nil
}

func validateRole(role model.Role) error {
	if !role.Valid() {
		return apperror.ValidationFailed("role", "role must be mentor or mentee")
	}
	return nil
}

func validateBio(bio string) error {
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return apperror.ValidationFailed("bio",
			fmt.Sprintf("bio must be %d characters or less", MaxBioLength))
	}
	return nil
}

// validateTags checks an already-sanitised skills or interests list.
func validateTags(field string, tags []string) error {
	if len(tags) > MaxTags {
		return apperror.ValidationFailed(field,
			fmt.Sprintf("%s may contain at most %d entries", field, MaxTags))
	}
	for _, tag := range tags {
		n := utf8.RuneCountInString(tag)
		if n < MinTagLength || n > MaxTagLength {
			return apperror.ValidationFailed(field,
				fmt.Sprintf("each entry in %s must be between %d and %d characters", field, MinTagLength, MaxTagLength))
		}
	}
	return nil
}
