package scheduling

import (
	"net/http"
	"time"

	"github.com/google/uuid"
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
	api.GET("/doctors/:doctorId/schedules", h.ListSchedules)

	write := api.Group("/doctors/:doctorId/schedules", auth.RequireRole(auth.RoleDoctor))
	write.POST("/generate", h.GenerateSchedule)
	write.PUT("/:scheduleId/status", h.SetScheduleStatus)
	write.POST("/:scheduleId/slots", h.AddSlot)
	write.DELETE("/:scheduleId/slots/:slotId", h.DeleteSlot)
}

func paramID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.ToHTTP(apperr.Validation("invalid %s", name))
	}
	return id, nil
}

func queryDate(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	d, err := ParseDate(raw)
	if err != nil {
		return nil, apperr.ToHTTP(err)
	}
	return &d, nil
}

type generateRequest struct {
	Month string `json:"month"`
}

func (h *Handler) GenerateSchedule(c echo.Context) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	doctorID, err := paramID(c, "doctorId")
	if err != nil {
		return err
	}
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, err := ParseMonth(req.Month)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	res, err := h.svc.GenerateSchedule(c.Request().Context(), actor, doctorID, m)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) ListSchedules(c echo.Context) error {
	doctorID, err := paramID(c, "doctorId")
	if err != nil {
		return err
	}
	from, err := queryDate(c, "from")
	if err != nil {
		return err
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return err
	}
	items, err := h.svc.ListSchedules(c.Request().Context(), doctorID, from, to)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

type statusRequest struct {
	Status ScheduleStatus `json:"status"`
}

func (h *Handler) SetScheduleStatus(c echo.Context) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	doctorID, err := paramID(c, "doctorId")
	if err != nil {
		return err
	}
	scheduleID, err := paramID(c, "scheduleId")
	if err != nil {
		return err
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sched, err := h.svc.SetScheduleStatus(c.Request().Context(), actor, doctorID, scheduleID, req.Status)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, sched)
}

type addSlotRequest struct {
	Time string `json:"time"`
}

func (h *Handler) AddSlot(c echo.Context) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	doctorID, err := paramID(c, "doctorId")
	if err != nil {
		return err
	}
	scheduleID, err := paramID(c, "scheduleId")
	if err != nil {
		return err
	}
	var req addSlotRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sl, err := h.svc.AddSlot(c.Request().Context(), actor, doctorID, scheduleID, req.Time)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, sl)
}

func (h *Handler) DeleteSlot(c echo.Context) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	doctorID, err := paramID(c, "doctorId")
	if err != nil {
		return err
	}
	scheduleID, err := paramID(c, "scheduleId")
	if err != nil {
		return err
	}
	slotID, err := paramID(c, "slotId")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteSlot(c.Request().Context(), actor, doctorID, scheduleID, slotID); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
