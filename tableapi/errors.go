package tableapi

import (
	"errors"
	"fmt"
)

// Sentinel errors checked at the dispatcher boundary.
var ErrInvalidAction = errors.New("invalid action")
var ErrNotFound = errors.New("record not found")
var ErrNoValidData = errors.New("no valid data submitted")

// ValidationError reports a schema/type/format/nullability failure on a
// single field. The whole write is rejected, never partially applied.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
}

// ConfigurationError reports a request that names something the table
// configuration does not allow (unregistered bulk action, column missing
// from an allow-list).
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return e.Reason
}

// UploadError reports a rejected or failed file upload.
type UploadError struct {
	Reason string
}

func (e *UploadError) Error() string {
	return e.Reason
}
