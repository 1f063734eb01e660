package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", Validation("amount must be positive"), http.StatusBadRequest},
		{"not found", NotFound("expense"), http.StatusNotFound},
		{"conflict", Conflict("category is in use"), http.StatusConflict},
		{"unauthenticated", Unauthenticated("missing token"), http.StatusUnauthorized},
		{"forbidden", Forbidden("admin only"), http.StatusForbidden},
		{"wrapped", fmt.Errorf("failed to delete: %w", Conflict("in use")), http.StatusConflict},
		{"infrastructure", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestMessageHidesInfrastructureErrors(t *testing.T) {
	assert.Equal(t, "expense not found", Message(fmt.Errorf("lookup: %w", NotFound("expense"))))
	assert.Equal(t, "internal error", Message(errors.New("dial tcp 10.0.0.1:5432: connection refused")))
}

func TestKindHelpers(t *testing.T) {
	err := fmt.Errorf("wrap: %w", Validation("bad %s", "input"))
	assert.True(t, IsValidation(err))
	assert.False(t, IsNotFound(err))
	assert.False(t, IsConflict(err))
	assert.Equal(t, "wrap: bad input", err.Error())
}
