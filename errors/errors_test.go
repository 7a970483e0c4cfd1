package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelWrapping(t *testing.T) {
	err := Wrap(ErrNotFound, "entity PER-00042")
	assert.True(t, Is(err, ErrNotFound))
	assert.True(t, IsNotFoundError(err))
	assert.False(t, IsNotFoundError(nil))

	wrapped := Wrapf(err, "loading registry from %s", "test.db")
	assert.True(t, Is(wrapped, ErrNotFound))
}

func TestIsStructural(t *testing.T) {
	assert.True(t, IsStructural(Wrap(ErrSchemaMissing, "relationships")))
	assert.False(t, IsStructural(ErrNotFound))
	assert.False(t, IsStructural(nil))
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("entity %s", "PER-00001")
	assert.True(t, Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "PER-00001")
}
