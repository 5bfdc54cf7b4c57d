package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "message only",
			err:  New(CodeNotFound, "operation not found"),
			want: "[NOT_FOUND(101)] operation not found",
		},
		{
			name: "with detail",
			err:  New(CodeInvalidParam, "bad request").WithDetail("message_ids empty"),
			want: "[INVALID_PARAM(100)] bad request: message_ids empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrap(t *testing.T) {
	t.Run("nil passthrough", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("wraps foreign error", func(t *testing.T) {
		root := stderrors.New("connection refused")
		err := Wrap(root, CodeDatabaseError, "query failed")
		require.NotNil(t, err)
		assert.Equal(t, CodeDatabaseError, err.Code)
		assert.ErrorIs(t, err, root)
	})

	t.Run("unknown code preserves inner classification", func(t *testing.T) {
		inner := New(CodeRateLimited, "quota exceeded")
		err := Wrap(inner, CodeUnknown, "bulk modify failed")
		require.NotNil(t, err)
		assert.Equal(t, CodeRateLimited, err.Code)
	})

	t.Run("explicit code overrides inner", func(t *testing.T) {
		inner := New(CodeRateLimited, "quota exceeded")
		err := Wrap(inner, CodeRemoteAPIError, "bulk modify failed")
		require.NotNil(t, err)
		assert.Equal(t, CodeRemoteAPIError, err.Code)
	})
}

func TestIsCode(t *testing.T) {
	root := New(CodeCircuitOpen, "breaker open")
	wrapped := fmt.Errorf("dispatch aborted: %w", root)

	assert.True(t, IsCode(wrapped, CodeCircuitOpen))
	assert.False(t, IsCode(wrapped, CodeRateLimited))
	assert.False(t, IsCode(nil, CodeCircuitOpen))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, CodePartialFailure, GetCode(New(CodePartialFailure, "some items failed")))

	wrapped := fmt.Errorf("outer: %w", New(CodeCompleteFailure, "all items failed"))
	assert.Equal(t, CodeCompleteFailure, GetCode(wrapped))
}

func TestWithDetailAndCause_Immutability(t *testing.T) {
	base := New(CodeInternal, "boom")
	withDetail := base.WithDetail("op=123")

	assert.Empty(t, base.Detail)
	assert.Equal(t, "op=123", withDetail.Detail)

	cause := stderrors.New("root")
	withCause := base.WithCause(cause)
	assert.Nil(t, base.Cause)
	assert.Same(t, cause, withCause.Cause)
}

func TestErrorCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{CodeInvalidParam, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeCircuitOpen, http.StatusServiceUnavailable},
		{CodeRemoteAPIError, http.StatusBadGateway},
		{CodePartialFailure, http.StatusBadGateway},
		{CodeInternal, http.StatusInternalServerError},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}
