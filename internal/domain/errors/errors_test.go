package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaxonomyMatching(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	t.Run("load", func(t *testing.T) {
		err := fmt.Errorf("resources: %w", &LoadError{URI: "/data/resources.json", Err: cause})
		assert.ErrorIs(t, err, ErrLoad)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.True(t, Transient(err))
	})

	t.Run("status", func(t *testing.T) {
		err := &LoadError{URI: "x", Status: 503}
		assert.Equal(t, "load x: status 503", err.Error())
	})

	t.Run("parse", func(t *testing.T) {
		err := &ParseError{URI: "x", Err: cause}
		assert.ErrorIs(t, err, ErrParse)
		assert.True(t, Transient(err))
	})

	t.Run("body", func(t *testing.T) {
		err := &BodyLoadError{Slug: "a", Ref: "/articles/a.html", Err: cause}
		assert.ErrorIs(t, err, ErrBodyLoad)
		assert.True(t, Transient(err))
	})

	t.Run("not found is not transient", func(t *testing.T) {
		err := &NotFoundError{Slug: "missing"}
		assert.ErrorIs(t, err, ErrNotFound)
		assert.False(t, Transient(err))
		assert.Contains(t, (&NotFoundError{}).Error(), "empty slug")
	})
}

func TestValidationError(t *testing.T) {
	var ve ValidationError
	assert.False(t, ve.HasAny())
	ve.Add("site.origin", "must not be empty")
	ve.Add("", "plain")
	assert.True(t, ve.HasAny())
	assert.ErrorIs(t, ve, ErrInvalid)
	assert.Contains(t, ve.Error(), " - site.origin: must not be empty\n")
	assert.Contains(t, ve.Error(), " - plain\n")
}
