package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrNotFound, "course CSE999 not found"))
	appErr := FromError(wrapped)
	assert.Equal(t, ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "course CSE999 not found", appErr.Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, "internal server error: boom", appErr.Error())
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrValidation, "days must not be empty")
	assert.Equal(t, "validation failed", ErrValidation.Message)
	assert.Equal(t, "days must not be empty", clone.Message)
	assert.Nil(t, FromError(nil))
}

func TestWrapUnwraps(t *testing.T) {
	root := errors.New("dial tcp: refused")
	err := Wrap(root, ErrInternal.Code, ErrInternal.Status, "failed to fetch catalog")
	assert.ErrorIs(t, err, root)
}
