package domain

import "errors"

var (
	// ErrNotAuthenticated is returned when a request carries no valid session
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrMissingCredentials is returned when neither a per-user token pair nor
	// the service-owner fallback pair is available for signing
	ErrMissingCredentials = errors.New("no usable signing credentials")

	// ErrAnonymousToken is returned when the remote API hands back its anonymous
	// token sentinel, meaning the signed session is invalid or expired
	ErrAnonymousToken = errors.New("remote API returned the anonymous token")

	// ErrUploadsDisabled is returned when the upload feature flag is off
	ErrUploadsDisabled = errors.New("uploads are currently disabled")
)
