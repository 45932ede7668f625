package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ChannelPreferences holds per-channel opt-in flags for a user.
type ChannelPreferences struct {
	Email bool
	SMS   bool
	InApp bool
}

// DefaultChannelPreferences applies when a user is created without explicit
// preferences.
func DefaultChannelPreferences() ChannelPreferences {
	return ChannelPreferences{Email: true, SMS: false, InApp: true}
}

// User is the recipient of notifications. Phone is optional; SMS delivery
// requires it and fails the attempt when it is absent.
type User struct {
	ID          string
	Name        string
	Email       string
	Phone       string
	Preferences ChannelPreferences
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !emailRegex.MatchString(strings.TrimSpace(u.Email)) {
		return fmt.Errorf("%w: invalid email address %q", ErrValidation, u.Email)
	}
	return nil
}
