package domain

import (
	"fmt"
	"strings"
)

// UserID is the opaque identity issued by the account collaborator. The
// realtime core never inspects its shape (the upstream store hands out hex
// object IDs today, but nothing here depends on that); it only requires the
// value to be non-empty.
type UserID string

// ParseUserID validates and returns a UserID.
func ParseUserID(s string) (UserID, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", fmt.Errorf("user id must not be empty")
	}
	return UserID(trimmed), nil
}

// String returns the string representation of the user ID.
func (u UserID) String() string {
	return string(u)
}

// IsNil returns true if the user ID is empty.
func (u UserID) IsNil() bool {
	return u == ""
}
