package services

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrSchoolNotFound     = errors.New("school not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrGrantNotFound      = errors.New("permission grant not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")

	ErrEmailTaken    = errors.New("email is already registered")
	ErrUsernameTaken = errors.New("username is already taken")

	// ErrDuplicateRoleName means another role with the same name exists
	// in the same school scope. Names are unique per tenant, not globally.
	ErrDuplicateRoleName = errors.New("role name already exists in this school")

	// ErrActiveEnrollmentExists blocks activating a second enrollment for
	// the same identity. Exactly one may be active at a time.
	ErrActiveEnrollmentExists = errors.New("identity already has an active enrollment")

	ErrAlreadyEnrolled = errors.New("identity is already enrolled in this school")

	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrSchoolRequired is returned when a teacher registration omits the
	// employing school.
	ErrSchoolRequired = errors.New("school_id is required for this identity kind")
)

// PermissionError carries the who/what/why of an authorization refusal.
type PermissionError struct {
	UserID   string
	Resource string
	Action   string
	Reason   string
}

func NewPermissionError(userID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:   userID,
		Resource: resource,
		Action:   action,
		Reason:   reason,
	}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s: %s", e.UserID, e.Action, e.Resource, e.Reason)
}

func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}
