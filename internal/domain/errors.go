package domain

import "errors"

var (
	ErrResourcesUnavailable = errors.New("recommendation resources are not loaded")
	ErrMalformedRequest     = errors.New("malformed request")
	ErrUnknownGender        = errors.New("unknown gender")
)
