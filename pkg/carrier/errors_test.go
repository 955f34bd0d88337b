package carrier_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/ratebridge/pkg/carrier"
)

func TestError_Error(t *testing.T) {
	err := carrier.NewError("ups", carrier.CodeAPIError, "rate call failed")
	assert.Equal(t, "ups error (API_ERROR): rate call failed", err.Error())
}

func TestError_SystemCarrierDefault(t *testing.T) {
	err := carrier.NewError("", carrier.CodeValidation, "bad request")
	assert.Contains(t, err.Error(), "SYSTEM error")
}

func TestError_ErrorWithCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := carrier.NewError("ups", carrier.CodeNetwork, "rate endpoint unreachable").WithCause(cause)
	assert.Contains(t, err.Error(), "rate endpoint unreachable")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := carrier.NewError("ups", carrier.CodeNetwork, "rate endpoint unreachable").WithCause(cause)
	assert.True(t, errors.Is(err, cause))
}

func TestError_IsMatchesOnCode(t *testing.T) {
	err1 := carrier.NewError("ups", carrier.CodeTimeout, "deadline hit")
	err2 := carrier.NewError("mock", carrier.CodeTimeout, "different message")
	assert.True(t, errors.Is(err1, err2))

	err3 := carrier.NewError("ups", carrier.CodeNetwork, "other failure")
	assert.False(t, errors.Is(err1, err3))
}

func TestIsRetryable(t *testing.T) {
	retryable := carrier.NewError("ups", carrier.CodeRateLimitExceeded, "slow down").WithRetryable(true)
	assert.True(t, carrier.IsRetryable(retryable))

	notRetryable := carrier.NewError("ups", carrier.CodeValidation, "bad request")
	assert.False(t, carrier.IsRetryable(notRetryable))

	// Untyped errors are never retryable.
	assert.False(t, carrier.IsRetryable(errors.New("boom")))
}

func TestWrap_TagsMissingCarrier(t *testing.T) {
	err := carrier.NewError("", carrier.CodeValidation, "bad request")
	wrapped := carrier.Wrap("ups", err)
	assert.Equal(t, "ups", wrapped.Carrier)
	assert.Equal(t, carrier.CodeValidation, wrapped.Code)
}

func TestWrap_NeverReclassifies(t *testing.T) {
	err := carrier.NewError("mock", carrier.CodeTimeout, "deadline hit").WithRetryable(true)
	wrapped := carrier.Wrap("ups", err)
	assert.Equal(t, "mock", wrapped.Carrier)
	assert.Equal(t, carrier.CodeTimeout, wrapped.Code)
	assert.True(t, wrapped.Retryable)
}

func TestWrap_UntypedBecomesUnknown(t *testing.T) {
	cause := errors.New("nil pointer somewhere")
	wrapped := carrier.Wrap("ups", cause)
	assert.Equal(t, carrier.CodeUnknown, wrapped.Code)
	assert.Equal(t, "ups", wrapped.Carrier)
	assert.False(t, wrapped.Retryable)
	assert.True(t, errors.Is(wrapped, cause))
}

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		status    int
		code      carrier.Code
		retryable bool
	}{
		{401, carrier.CodeAuthTokenInvalid, false},
		{403, carrier.CodeAuthTokenInvalid, false},
		{429, carrier.CodeRateLimitExceeded, true},
		{500, carrier.CodeAPIError, true},
		{503, carrier.CodeAPIError, true},
		{400, carrier.CodeAPIError, false},
		{404, carrier.CodeAPIError, false},
	}

	for _, tt := range tests {
		err := carrier.FromStatusCode("ups", tt.status)
		require.NotNil(t, err)
		assert.Equal(t, tt.code, err.Code, "status %d", tt.status)
		assert.Equal(t, tt.retryable, err.Retryable, "status %d", tt.status)
		assert.Equal(t, tt.status, err.StatusCode)
		assert.Equal(t, "ups", err.Carrier)
	}
}
