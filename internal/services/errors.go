package services

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationIncomplete means the account still requires multi-factor verification.
	ErrAuthenticationIncomplete = errors.New("multi-factor verification required: run the bootstrap command to authenticate")

	// ErrDeviceNotFound means no registered device has the configured name.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrLocationUnavailable means the device reported no location, typically because it is offline.
	ErrLocationUnavailable = errors.New("no location data available")

	// ErrMalformedLocation means the location payload lacks latitude or longitude.
	ErrMalformedLocation = errors.New("location payload missing latitude/longitude")

	// ErrAddressUnavailable means the geocoder answered without an address.
	ErrAddressUnavailable = errors.New("could not reverse geocode the location")

	// ErrGeocoderFailure means the geocoder was unreachable or reported a failure.
	ErrGeocoderFailure = errors.New("geocoding service failure")

	// ErrInvalidSelection means the operator picked a trusted device that does not exist.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrVerificationFailed means a verification code was rejected or could not be sent.
	ErrVerificationFailed = errors.New("verification failed")
)

// UpstreamError wraps a failure of the account service.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
