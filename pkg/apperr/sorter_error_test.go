package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_IsMatchesOnCode(t *testing.T) {
	cause := errors.New("no such file")
	err := fmt.Errorf("open: %w", StoreUnavailable("/tmp/chat.db", cause))

	assert.True(t, errors.Is(err, ErrStoreUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrWriteFailed))
	assert.True(t, HasCode(err, CodeStoreUnavailable))
}

func TestAsAppError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"app error", WriteFailed("contact-1", errors.New("boom")), CodeWriteFailed, http.StatusInternalServerError},
		{"wrapped app error", fmt.Errorf("x: %w", NotFound("contact")), CodeNotFound, http.StatusNotFound},
		{"plain error", errors.New("plain"), CodeInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := AsAppError(tt.err)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.status, GetHTTPStatus(appErr))
		})
	}
}

func TestAppError_WithDetail(t *testing.T) {
	err := InvalidRecord("contact-9", "negative count").WithDetail("field", "sent_count")
	assert.Equal(t, "contact-9", err.Details["id"])
	assert.Equal(t, "sent_count", err.Details["field"])
	assert.Contains(t, err.Error(), "INVALID_RECORD")
}
