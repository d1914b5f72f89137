package authz

import "errors"

var (
	// ErrNoTenant is returned for identities with no sub-identity set.
	ErrNoTenant = errors.New("identity has no tenant membership")

	// ErrNoActiveTenant is returned when every tenant association of the
	// identity is inactive.
	ErrNoActiveTenant = errors.New("identity has no active tenant membership")

	// ErrAmbiguousTenant is returned when more than one association is
	// active at once. The write path prevents this; the resolver still
	// refuses to pick one silently.
	ErrAmbiguousTenant = errors.New("identity has more than one active tenant membership")

	// ErrForbidden is an authorization denial. It is always surfaced,
	// never retried.
	ErrForbidden = errors.New("permission denied")

	// ErrNoPermissionsConfigured means the identity has neither roles
	// carrying grants nor direct grants. Call sites report this
	// separately from an ordinary denial.
	ErrNoPermissionsConfigured = errors.New("no permissions configured for identity")
)
