package apperrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentabot/rentabot/internal/apperrors"
)

func TestNewAndError(t *testing.T) {
	err := apperrors.New(apperrors.ResourceNotFound, "Resource not found", apperrors.Details("resource_id", 7))
	assert.Equal(t, "Resource not found", err.Error())
	assert.Equal(t, apperrors.ResourceNotFound, err.Kind)
	assert.Equal(t, 7, err.Details["resource_id"])
}

func TestAsMapFlattensDetails(t *testing.T) {
	err := apperrors.New(apperrors.InvalidTTL, "ttl too long", apperrors.Details("resource_id", 1, "max", 60))
	body := err.AsMap()
	assert.Equal(t, "ttl too long", body["message"])
	assert.Equal(t, 1, body["resource_id"])
	assert.Equal(t, 60, body["max"])
}

func TestWrapPreservesCauseForUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying failure")
	wrapped := apperrors.Wrap(apperrors.ResourceNotFound, cause, "not found", nil)
	assert.Same(t, cause, errors.Unwrap(wrapped))
}

func TestKindOfUnwrapsWrappedErrors(t *testing.T) {
	base := apperrors.New(apperrors.InsufficientResources, "not enough", nil)
	wrapped := fmt.Errorf("context: %w", base)

	kind, ok := apperrors.KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, apperrors.InsufficientResources, kind)

	_, ok = apperrors.KindOf(errors.New("unrelated"))
	assert.False(t, ok)
}

func TestDetailsPanicsOnOddArgs(t *testing.T) {
	assert.Panics(t, func() { apperrors.Details("only-key") })
}

func TestIsComparesByKind(t *testing.T) {
	a := apperrors.New(apperrors.ResourceAlreadyLocked, "a", nil)
	b := apperrors.New(apperrors.ResourceAlreadyLocked, "b", nil)
	c := apperrors.New(apperrors.ResourceNotFound, "c", nil)
	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}
