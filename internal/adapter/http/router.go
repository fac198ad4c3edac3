package http

import (
	"apparatus-lending/internal/adapter/middleware"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Health    *Handler
	Loans     *LoanHandler
	Catalog   *CatalogHandler
	Dashboard *DashboardHandler
}

// Register mounts every route. Routes under /api/v1 require X-Actor-Id and
// additionally run mws (idempotency in production).
func Register(e *echo.Echo, h Handlers, mws ...echo.MiddlewareFunc) {
	e.Validator = NewValidator()
	e.GET("/health", h.Health.Health)

	api := e.Group("/api/v1", append([]echo.MiddlewareFunc{middleware.RequireActor()}, mws...)...)

	api.POST("/forms", h.Loans.Submit)
	api.GET("/forms", h.Dashboard.ListForms)
	api.GET("/forms/:id", h.Dashboard.FormDetail)
	api.POST("/forms/:id/approve", h.Loans.Approve)
	api.POST("/forms/:id/reject", h.Loans.Reject)
	api.POST("/forms/:id/return", h.Loans.MarkChecking)
	api.POST("/forms/:id/confirm-return", h.Loans.ConfirmReturn)
	api.POST("/forms/:id/confirm-late-return", h.Loans.ConfirmLateReturn)
	api.POST("/forms/:id/overdue", h.Loans.MarkOverdue)
	api.POST("/forms/:id/damage", h.Loans.MarkDamaged)

	api.GET("/dashboard/pending", h.Dashboard.PendingActions)
	api.GET("/me/forms", h.Dashboard.MyForms)
	api.GET("/me/status", h.Dashboard.MyStatus)
	api.GET("/borrowers/:id/forms", h.Dashboard.BorrowerForms)
	api.GET("/borrowers/:id/status", h.Dashboard.BorrowerStatus)

	api.GET("/types", h.Catalog.ListTypes)
	api.POST("/types", h.Catalog.CreateType)
	api.GET("/types/:id", h.Catalog.GetType)
	api.PUT("/types/:id/stock", h.Catalog.UpdateStock)
	api.DELETE("/types/:id", h.Catalog.RemoveType)
	api.POST("/types/:id/refresh", h.Catalog.Refresh)
	api.GET("/types/:id/units", h.Catalog.ListUnits)
	api.POST("/units/:id/restore", h.Loans.RestoreUnit)
}
