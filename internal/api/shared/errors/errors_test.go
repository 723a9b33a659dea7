package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/feral-file/title-scrutiny/internal/domain"
)

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    ErrorCode
		details string
	}{
		{
			name:    "wrapped not found",
			err:     fmt.Errorf("%w: deed d1", domain.ErrNotFound),
			status:  http.StatusNotFound,
			code:    ErrCodeNotFound,
			details: "not found: deed d1",
		},
		{
			name:    "session",
			err:     domain.ErrSessionNotFound,
			status:  http.StatusNotFound,
			code:    ErrCodeNotFound,
			details: "session not found",
		},
		{
			name:    "survey no",
			err:     domain.ErrSurveyNoRequired,
			status:  http.StatusBadRequest,
			code:    ErrCodeValidationFailed,
			details: "Survey No is required",
		},
		{
			name:    "column exists",
			err:     domain.ErrColumnExists,
			status:  http.StatusConflict,
			code:    ErrCodeConflict,
			details: "Column already exists",
		},
		{
			name:   "internal",
			err:    errors.New("connection refused"),
			status: http.StatusInternalServerError,
			code:   ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, apiErr := FromDomain(tt.err, "Request failed")
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, "Request failed", apiErr.Message)
			assert.Equal(t, tt.details, apiErr.Details)
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	err := NewBadRequestError("Invalid request", "a", "b")
	assert.JSONEq(t, `{"code":"bad_request","message":"Invalid request","details":"a, b"}`, err.Error())
}
