package http

import (
	"net/http"
	"strconv"

	"apparatus-lending/internal/adapter/middleware"
	"apparatus-lending/internal/usecase/dashboard"

	"github.com/labstack/echo/v4"
)

type DashboardHandler struct{ svc *dashboard.Service }

func NewDashboardHandler(svc *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

func (h *DashboardHandler) PendingActions(c echo.Context) error {
	forms, err := h.svc.PendingActions(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, forms)
}

// ListForms takes ?status=all|overdue|<form status>.
func (h *DashboardHandler) ListForms(c echo.Context) error {
	forms, err := h.svc.ListForms(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, forms)
}

func (h *DashboardHandler) FormDetail(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badPath(c, "id")
	}
	d, err := h.svc.FormDetail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *DashboardHandler) BorrowerForms(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badPath(c, "id")
	}
	return h.borrowerForms(c, id)
}

// MyForms lists the forms of the caller.
func (h *DashboardHandler) MyForms(c echo.Context) error {
	return h.borrowerForms(c, middleware.Actor(c))
}

func (h *DashboardHandler) BorrowerStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badPath(c, "id")
	}
	return h.borrowerStatus(c, id)
}

// MyStatus reports the caller's open loan count and ban window.
func (h *DashboardHandler) MyStatus(c echo.Context) error {
	return h.borrowerStatus(c, middleware.Actor(c))
}

func (h *DashboardHandler) borrowerStatus(c echo.Context, borrowerID uint64) error {
	st, err := h.svc.BorrowerStatus(c.Request().Context(), borrowerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *DashboardHandler) borrowerForms(c echo.Context, borrowerID uint64) error {
	activeOnly := false
	if raw := c.QueryParam("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "active must be a boolean"})
		}
		activeOnly = v
	}
	forms, err := h.svc.BorrowerForms(c.Request().Context(), borrowerID, activeOnly)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, forms)
}
