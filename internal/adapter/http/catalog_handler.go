package http

import (
	"net/http"

	"apparatus-lending/internal/adapter/middleware"
	"apparatus-lending/internal/usecase/catalog"

	"github.com/labstack/echo/v4"
)

type CatalogHandler struct{ svc *catalog.Service }

func NewCatalogHandler(svc *catalog.Service) *CatalogHandler { return &CatalogHandler{svc: svc} }

type stockReq struct {
	Total   int64 `json:"total_stock"   validate:"gte=0"`
	Damaged int64 `json:"damaged_stock" validate:"gte=0"`
	Lost    int64 `json:"lost_stock"    validate:"gte=0"`
}

type createTypeReq struct {
	Name        string `json:"name"        validate:"required,notblank,max=120"`
	Category    string `json:"category"    validate:"max=80"`
	Size        string `json:"size"        validate:"max=40"`
	Material    string `json:"material"    validate:"max=40"`
	Description string `json:"description" validate:"max=2000"`
	Image       string `json:"image"       validate:"max=255"`
	stockReq
}

func (h *CatalogHandler) CreateType(c echo.Context) error {
	var req createTypeReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	t, err := h.svc.CreateType(c.Request().Context(), catalog.CreateTypeInput{
		Name:        req.Name,
		Category:    req.Category,
		Size:        req.Size,
		Material:    req.Material,
		Description: req.Description,
		Image:       req.Image,
		Total:       req.Total,
		Damaged:     req.Damaged,
		Lost:        req.Lost,
		ActorID:     middleware.Actor(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *CatalogHandler) ListTypes(c echo.Context) error {
	types, err := h.svc.ListTypes(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, types)
}

func (h *CatalogHandler) GetType(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badPath(c, "id")
	}
	t, err := h.svc.GetType(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *CatalogHandler) UpdateStock(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badPath(c, "id")
	}
	var req stockReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	snap, err := h.svc.UpdateStock(c.Request().Context(), catalog.UpdateStockInput{
		TypeID: id, Total: req.Total, Damaged: req.Damaged, Lost: req.Lost, ActorID: middleware.Actor(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *CatalogHandler) RemoveType(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badPath(c, "id")
	}
	if err := h.svc.RemoveType(c.Request().Context(), catalog.RemoveTypeInput{TypeID: id, ActorID: middleware.Actor(c)}); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) Refresh(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badPath(c, "id")
	}
	snap, err := h.svc.Refresh(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *CatalogHandler) ListUnits(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badPath(c, "id")
	}
	units, err := h.svc.ListUnits(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, units)
}
