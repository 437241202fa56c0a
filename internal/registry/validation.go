package registry

import (
	"fmt"
	"regexp"
	"strings"
)

const maxDeviceNameLength = 50

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

// ValidateUserDeviceName enforces spec §8's boundary: up to 50 characters,
// non-empty.
func ValidateUserDeviceName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(name) > maxDeviceNameLength {
		return fmt.Errorf("%w: %d characters, max %d", ErrNameTooLong, len(name), maxDeviceNameLength)
	}
	return nil
}

// ValidateUserID enforces the Interaction Engine's username rule (§4.8):
// 3-32 characters of [A-Za-z0-9_.-].
func ValidateUserID(id string) error {
	if !userIDPattern.MatchString(id) {
		return fmt.Errorf("%w: userID %q must be 3-32 characters of [A-Za-z0-9_.-]", ErrMissingField, id)
	}
	return nil
}

// NormalizeUserID lowercases a userID for storage and comparison, per
// spec §3's "stored lowercase" rule.
func NormalizeUserID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// NormalizeChatID normalizes a chat identifier to its decimal string form
// for string-equality comparisons (spec §4.2 tie-break rule).
func NormalizeChatID(chatID string) string {
	return strings.TrimSpace(chatID)
}
