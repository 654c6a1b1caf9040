package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	appErr := Wrap(cause, "database unavailable")

	require.Equal(t, "database unavailable: connection refused", appErr.Error())
	require.ErrorIs(t, appErr, cause)
	require.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
}

func TestFromErrorPassthrough(t *testing.T) {
	original := NewBadRequest("name is required")

	converted := FromError(original)
	require.Equal(t, original, converted)
	require.Equal(t, http.StatusBadRequest, converted.StatusCode)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	converted := FromError(errors.New("boom"))

	require.Equal(t, ErrInternalServer.Code, converted.Code)
	require.Equal(t, http.StatusInternalServerError, converted.StatusCode)
	require.EqualError(t, converted.Internal, "boom")
}

func TestFromErrorNil(t *testing.T) {
	require.Nil(t, FromError(nil))
}

func TestWithInternalCopies(t *testing.T) {
	cause := errors.New("disk full")
	withCause := ErrInternalServer.WithInternal(cause)

	require.Nil(t, ErrInternalServer.Internal)
	require.ErrorIs(t, withCause, cause)
}
