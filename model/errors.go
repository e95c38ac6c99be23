package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ValidationError reports input rejected before any storage access.
type ValidationError struct {
	Err error
}

// Invalid wraps a non-nil validation result in a ValidationError.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}
	return &ValidationError{Err: err}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Fields flattens field errors into a name to message map.
func (e *ValidationError) Fields() map[string]string {
	out := map[string]string{}
	var fields validation.Errors
	if !errors.As(e.Err, &fields) {
		out["_"] = e.Err.Error()
		return out
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if fields[k] != nil {
			out[k] = fields[k].Error()
		}
	}
	return out
}

// NotFoundError is returned by writes that reference a missing record.
// Reads report absence with a nil result instead.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ConflictError reports a uniqueness violation.
type ConflictError struct {
	Entity string
	Field  string
	Value  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Entity, e.Field, e.Value)
}

// DependentsError blocks deleting a parent that still owns children.
type DependentsError struct {
	Entity    string
	Dependent string
	Count     int
}

func (e *DependentsError) Error() string {
	return fmt.Sprintf("cannot delete %s: %d dependent %s(s)", e.Entity, e.Count, strings.ToLower(e.Dependent))
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
