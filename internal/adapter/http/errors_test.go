package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"apparatus-lending/internal/domain/apparatus"
	"apparatus-lending/internal/domain/borrow"
	"apparatus-lending/internal/domain/uow"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"form not found", fmt.Errorf("%w: 1", borrow.ErrNotFound), http.StatusNotFound},
		{"unit not found", apparatus.ErrUnitNotFound, http.StatusNotFound},
		{"not owner", borrow.ErrNotOwner, http.StatusForbidden},
		{"invalid input", borrow.ErrInvalidInput, http.StatusUnprocessableEntity},
		{"already approved", borrow.ErrAlreadyApproved, http.StatusConflict},
		{"banned", borrow.ErrBanned, http.StatusConflict},
		{"type in use", apparatus.ErrTypeInUse, http.StatusConflict},
		{"duplicate", &borrow.DuplicateRequestError{ItemName: "Beaker"}, http.StatusConflict},
		{"retryable", fmt.Errorf("%w: deadlock", uow.ErrRetryable), http.StatusServiceUnavailable},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := mapError(tt.err)
			if code != tt.want {
				t.Fatalf("code = %d, want %d", code, tt.want)
			}
			if code == http.StatusInternalServerError && body.Error != "internal error" {
				t.Fatalf("internal errors must not leak: %q", body.Error)
			}
		})
	}
}
