package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalid  = errors.New("invalid")
	ErrLoad     = errors.New("catalog load failed")
	ErrParse    = errors.New("catalog parse failed")
	ErrNotFound = errors.New("not found")
	ErrBodyLoad = errors.New("article body load failed")
)

type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationError struct {
	Items []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Items) == 0 {
		return "validation failed"
	}

	var b strings.Builder
	b.WriteString("validation failed:\n")
	for _, item := range e.Items {
		b.WriteString(" - ")
		b.WriteString(item.Error())
		b.WriteString("\n")
	}
	return b.String()
}

func (e *ValidationError) Add(field, msg string) {
	e.Items = append(e.Items, FieldError{
		Field:   field,
		Message: msg,
	})
}

func (e ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func (e ValidationError) HasAny() bool {
	return len(e.Items) > 0
}

// LoadError reports an unreachable catalog source or a non-success status.
type LoadError struct {
	URI    string
	Status int
	Err    error
}

func (e *LoadError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("load %s: status %d", e.URI, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("load %s: %v", e.URI, e.Err)
	default:
		return fmt.Sprintf("load %s: failed", e.URI)
	}
}

func (e *LoadError) Unwrap() error        { return e.Err }
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// ParseError reports a payload that is not a well-formed item array.
type ParseError struct {
	URI string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URI, e.Err)
}

func (e *ParseError) Unwrap() error        { return e.Err }
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// NotFoundError reports a slug that is absent from the catalog or could not be
// identified from the request at all.
type NotFoundError struct {
	Slug string
}

func (e *NotFoundError) Error() string {
	if e.Slug == "" {
		return "article not found: empty slug"
	}
	return fmt.Sprintf("article not found: %s", e.Slug)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

type BodyLoadError struct {
	Slug string
	Ref  string
	Err  error
}

func (e *BodyLoadError) Error() string {
	return fmt.Sprintf("load body for %s (%s): %v", e.Slug, e.Ref, e.Err)
}

func (e *BodyLoadError) Unwrap() error        { return e.Err }
func (e *BodyLoadError) Is(target error) bool { return target == ErrBodyLoad }

// Transient reports whether err is a failure that a fresh page load may fix,
// as opposed to a request for something that does not exist.
func Transient(err error) bool {
	return errors.Is(err, ErrLoad) || errors.Is(err, ErrParse) || errors.Is(err, ErrBodyLoad)
}
