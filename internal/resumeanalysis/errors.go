package resumeanalysis

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrAccessDenied        = errors.New("access denied")
	ErrInvalidInput        = errors.New("invalid input")
	ErrArtifactsIncomplete = errors.New("analysis saved without page artifacts")
)

const (
	ErrorCodeValidation      = "validation_error"
	ErrorCodeNotFound        = "not_found"
	ErrorCodeForbidden       = "forbidden"
	ErrorCodeInternal        = "internal_error"
	ErrorCodeUnsupportedType = "unsupported_media_type"
	ErrorCodeTooLarge        = "payload_too_large"
)
