package registry

import "errors"

// Domain errors for the registry package. Callers should prefer errors.Is
// over string comparison.
var (
	// ErrUnsupportedModel is returned when register_device names a model
	// absent from DeviceModels.
	ErrUnsupportedModel = errors.New("registry: unsupported model")

	// ErrDuplicateUser is returned when create_user is called with a userID
	// (case-insensitively) that already exists.
	ErrDuplicateUser = errors.New("registry: duplicate user")

	// ErrUserNotFound is returned when a userID does not resolve.
	ErrUserNotFound = errors.New("registry: user not found")

	// ErrDeviceNotFound is returned when a deviceID does not resolve.
	ErrDeviceNotFound = errors.New("registry: device not found")

	// ErrDeviceAlreadyAssigned is returned when assigning a device that
	// already has an owner.
	ErrDeviceAlreadyAssigned = errors.New("registry: device already assigned")

	// ErrNameTooLong is returned when user_device_name exceeds 50 characters.
	ErrNameTooLong = errors.New("registry: name too long")

	// ErrEmptyName is returned when user_device_name is empty.
	ErrEmptyName = errors.New("registry: name is empty")

	// ErrInvalidMAC is returned when a MAC address does not normalize to 12
	// hex characters.
	ErrInvalidMAC = errors.New("registry: invalid mac address")

	// ErrChatAlreadyLinked is returned when link_telegram names a chat_id
	// already linked to a different user.
	ErrChatAlreadyLinked = errors.New("registry: chat already linked to another user")

	// ErrServiceNotFound is returned when a serviceID does not resolve.
	ErrServiceNotFound = errors.New("registry: service not found")

	// ErrModelNotFound is returned when a model name does not resolve.
	ErrModelNotFound = errors.New("registry: model not found")

	// ErrMissingField is returned when a required field is absent or, from
	// ValidateUserID, malformed.
	ErrMissingField = errors.New("registry: missing required field")
)
