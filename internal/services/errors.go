// Package services defines the business logic for signup and notification
// dispatch. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

// Signup-related errors.
var (
	// ErrInvalidForm is returned when the submitted body is missing,
	// undecodable, or fails field validation. No database work happens
	// on this path.
	ErrInvalidForm = errors.New("signup form is missing or invalid")

	// ErrVerificationFailed is returned when the bot-challenge token is
	// absent or rejected by the verification endpoint.
	ErrVerificationFailed = errors.New("security verification failed")

	// ErrDuplicatePhone is returned when a user with the same phone number
	// already exists. The whole signup transaction is rolled back; zero
	// partial rows remain.
	ErrDuplicatePhone = errors.New("a user with that phone number already exists")

	// ErrStorageUnavailable indicates the contact directory could not be
	// reached at all, as opposed to rejecting the particular write.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Dispatch-related errors.
var (
	// ErrNoContent is returned by a content resolver whose source has no
	// current payload (e.g. the astronomy-photo cache is empty). The type
	// is skipped for the cycle; other types proceed.
	ErrNoContent = errors.New("no content available")
)
