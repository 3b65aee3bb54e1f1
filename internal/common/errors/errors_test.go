package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *StandardError
		want int
	}{
		{NewValidationError(map[string]string{"query_type": "This field is required."}), http.StatusBadRequest},
		{NewConflictError("Preference already added"), http.StatusBadRequest},
		{NewNotFoundError("Framework", "id: 1"), http.StatusNotFound},
		{NewUnauthorizedError("missing token"), http.StatusUnauthorized},
		{NewForbiddenError("staff only"), http.StatusForbidden},
		{NewRateLimitedError(), http.StatusTooManyRequests},
		{NewIndexUnavailableError(fmt.Errorf("dial tcp")), http.StatusServiceUnavailable},
		{NewIndexNotFoundError("frameworks"), http.StatusServiceUnavailable},
		{NewSearchQueryFailedError("frameworks", fmt.Errorf("parse")), http.StatusBadGateway},
		{NewSearchTimeoutError("frameworks"), http.StatusGatewayTimeout},
		{NewQueryExecutionFailedError("get_framework", fmt.Errorf("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestNewValidationError_Message(t *testing.T) {
	err := NewValidationError(map[string]string{
		"filter.cpv_code": "Invalid CPV code",
		"query_type":      "This field is required.",
	})
	assert.Equal(t, "filter.cpv_code: Invalid CPV code", err.Message)
	assert.Equal(t, ErrCodeValidationFailed, err.Code)

	root := NewValidationError(map[string]string{"(root)": "Both start_date and end_date should be provided."})
	assert.Equal(t, "Both start_date and end_date should be provided.", root.Message)

	empty := NewValidationError(nil)
	assert.Equal(t, "Invalid request", empty.Message)
}

func TestAsAndNormalize(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	wrapped := fmt.Errorf("search: %w", NewIndexUnavailableError(cause))

	stdErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeIndexUnavailable, stdErr.Code)
	assert.True(t, stderrors.Is(wrapped, cause))

	plain := Normalize(fmt.Errorf("plain"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.HTTPStatus())
}

func TestConvertToBPMNError(t *testing.T) {
	bpmn := ConvertToBPMNError(NewSearchQueryFailedError("frameworks", fmt.Errorf("bad")))
	assert.Equal(t, "SEARCH_QUERY_FAILED", bpmn.Code)
	assert.Equal(t, 3, bpmn.Retries)
	assert.True(t, bpmn.Retryable)

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "SEARCH_QUERY_FAILED", vars["originalErrorCode"])
	assert.Equal(t, "Search query failed", vars["errorMessage"])

	invalid := ConvertToBPMNError(NewBadRequestError("bad input"))
	assert.Equal(t, "INVALID_FRAMEWORK_SEARCH", invalid.Code)
	assert.Equal(t, 0, invalid.Retries)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeIndexUnavailable))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryExecutionFailed))
	assert.Equal(t, "AUTH", GetErrorCategory(ErrCodeForbidden))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeEmptyQuery))
	assert.Equal(t, "INTERNAL", GetErrorCategory(ErrCodeInternal))
	assert.False(t, IsRetryableErrorCode(ErrCodeValidationFailed))
	assert.True(t, IsRetryableErrorCode(ErrCodeSearchTimeout))
}
