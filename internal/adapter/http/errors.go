package http

import (
	"errors"
	"net/http"
	"strconv"

	"apparatus-lending/internal/adapter/middleware"
	"apparatus-lending/internal/domain/apparatus"
	"apparatus-lending/internal/domain/audit"
	"apparatus-lending/internal/domain/borrow"
	"apparatus-lending/internal/domain/borrower"
	"apparatus-lending/internal/domain/uow"

	"github.com/labstack/echo/v4"
)

// Map domain errors → HTTP codes
func mapError(err error) (int, ErrorResponse) {
	var stockErr *borrow.StockError
	var dupErr *borrow.DuplicateRequestError
	switch {
	case errors.As(err, &stockErr):
		return http.StatusConflict, ErrorResponse{Error: err.Error(), Stock: &StockBlocker{
			TypeID:    stockErr.TypeID,
			TypeName:  stockErr.TypeName,
			Requested: stockErr.Requested,
			Available: stockErr.Available,
		}}
	case errors.As(err, &dupErr):
		return http.StatusConflict, ErrorResponse{Error: err.Error(), Item: dupErr.ItemName}

	case errors.Is(err, borrow.ErrNotFound), errors.Is(err, apparatus.ErrTypeNotFound),
		errors.Is(err, apparatus.ErrUnitNotFound), errors.Is(err, borrower.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: err.Error()}

	case errors.Is(err, borrow.ErrNotOwner):
		return http.StatusForbidden, ErrorResponse{Error: err.Error()}

	case errors.Is(err, borrow.ErrInvalidInput), errors.Is(err, apparatus.ErrInvalidStock):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()}

	case errors.Is(err, audit.ErrMissingActor):
		return http.StatusUnauthorized, ErrorResponse{Error: err.Error()}

	case errors.Is(err, borrow.ErrInvalidTransition), errors.Is(err, borrow.ErrBanned),
		errors.Is(err, borrow.ErrUnitNotOnForm), errors.Is(err, apparatus.ErrNotDamaged),
		errors.Is(err, apparatus.ErrDuplicateType), errors.Is(err, apparatus.ErrStockTooLow),
		errors.Is(err, apparatus.ErrTypeInUse):
		return http.StatusConflict, ErrorResponse{Error: err.Error()}

	case errors.Is(err, uow.ErrRetryable):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "storage busy, retry the request"}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: "internal error"}
}

func writeError(c echo.Context, err error) error {
	code, body := mapError(err)
	log := middleware.LoggerFrom(c).WithError(err).WithField("status", code)
	if code >= http.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Debug("request refused")
	}
	return c.JSON(code, body)
}

// ---- helpers ----

func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id != 0
}

func badPath(c echo.Context, name string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name + " path param"})
}

// bindValid binds the body into req and validates it, writing the 400/422
// response itself. ok is false when the handler must stop.
func bindValid(c echo.Context, req any) (ok bool, err error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}
