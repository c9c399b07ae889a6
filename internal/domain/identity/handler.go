package identity

import (
	"net/http"
	"strconv"

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
	// Directory reads are open to every authenticated role.
	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/specialties", h.ListSpecialties)
	api.GET("/doctors/:doctorId", h.GetDoctor)
	api.GET("/patients/:patientId", h.GetPatient)

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/doctors", h.CreateDoctor)
	admin.DELETE("/doctors/:doctorId", h.InvalidateDoctor)

	api.PUT("/doctors/:doctorId", h.UpdateDoctor, auth.RequireRole(auth.RoleDoctor))

	patients := api.Group("", auth.RequireRole(auth.RolePatient))
	patients.POST("/patients", h.CreatePatient)
	patients.PUT("/patients/:patientId", h.UpdatePatient)
}

func paramID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.ToHTTP(apperr.Validation("invalid %s", name))
	}
	return id, nil
}

// -- Doctor Handlers --

func (h *Handler) ListDoctors(c echo.Context) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	includeInvalid, _ := strconv.ParseBool(c.QueryParam("include_invalid"))
	items, err := h.svc.ListDoctors(c.Request().Context(), actor, c.QueryParam("specialty"), includeInvalid)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if items == nil {
		items = []*Doctor{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListSpecialties(c echo.Context) error {
	items, err := h.svc.ListSpecialties(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if items == nil {
		items = []string{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "doctorId")
	if err != nil {
		return err
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), actor, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateDoctor(c.Request().Context(), actor, &d); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "doctorId")
	if err != nil {
		return err
	}
	var u DoctorUpdate
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.UpdateDoctor(c.Request().Context(), actor, id, u)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) InvalidateDoctor(c echo.Context) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "doctorId")
	if err != nil {
		return err
	}
	if err := h.svc.InvalidateDoctor(c.Request().Context(), actor, id); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Patient Handlers --

func (h *Handler) CreatePatient(c echo.Context) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreatePatient(c.Request().Context(), actor, &p); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "patientId")
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatient(c.Request().Context(), actor, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "patientId")
	if err != nil {
		return err
	}
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if err := h.svc.UpdatePatient(c.Request().Context(), actor, &p); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}
