package services

import "errors"

// Sentinel errors returned by the service layer. Handlers translate these
// into HTTP status codes and user-facing messages.
var (
	ErrOrganizationNotFound = errors.New("organization service: organization not found")

	ErrUserNotFound     = errors.New("user service: user not found")
	ErrUserInactive     = errors.New("user service: user is deactivated")
	ErrInvalidRole      = errors.New("user service: invalid role")
	ErrSelfDeactivation = errors.New("user service: cannot deactivate own account")

	ErrInviteNotFound       = errors.New("invite service: invitation not found or expired")
	ErrInviteAlreadyPending = errors.New("invite service: a pending invitation already exists for this email")
	ErrInviteEmailInUse     = errors.New("invite service: a user with this email already exists")

	ErrContactNotFound     = errors.New("contact service: contact not found")
	ErrContactEmailTaken   = errors.New("contact service: a contact with this email already exists")
	ErrContactLimitReached = errors.New("contact service: contact limit reached for this organization")
)
