package promo

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/telemed/telemed/internal/platform/apperr"
	"github.com/telemed/telemed/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/promos/:code", h.Evaluate)

	admin := api.Group("/promos", auth.RequireRole(auth.RoleAdmin))
	admin.GET("", h.List)
	admin.POST("", h.Create)
}

func (h *Handler) Evaluate(c echo.Context) error {
	p, err := h.svc.Evaluate(c.Request().Context(), c.Param("code"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

// createRequest defaults Active to true when omitted.
type createRequest struct {
	Code       string `json:"code"`
	Percentage int    `json:"percentage"`
	Active     *bool  `json:"active"`
}

func (h *Handler) Create(c echo.Context) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p := PromoCode{Code: req.Code, Percentage: req.Percentage, Active: true}
	if req.Active != nil {
		p.Active = *req.Active
	}
	if err := h.svc.Create(c.Request().Context(), actor, &p); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) List(c echo.Context) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	items, err := h.svc.List(c.Request().Context(), actor)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}
