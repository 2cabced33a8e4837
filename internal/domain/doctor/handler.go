package doctor

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/doctors", h.List)
	g.POST("/doctors", h.Create)
	g.GET("/doctors/:doctorId", h.Get)
	g.PUT("/doctors/:doctorId", h.Update)
	g.DELETE("/doctors/:doctorId", h.Delete)
}

func (h *Handler) List(c echo.Context) error {
	includeInactive := c.QueryParam("includeInactive") == "true"
	doctors, err := h.svc.List(c.Request().Context(), includeInactive)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list doctors").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"doctors": doctors,
		"count":   len(doctors),
	})
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
	}
	d, err := h.svc.Create(c.Request().Context(), req)
	if errors.Is(err, ErrNameRequired) {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing required field: name")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create doctor").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Doctor created successfully",
		"doctor":  d,
	})
}

func (h *Handler) Get(c echo.Context) error {
	d, err := h.svc.Get(c.Request().Context(), c.Param("doctorId"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Doctor not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get doctor").SetInternal(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Update(c echo.Context) error {
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
	}
	d, err := h.svc.Update(c.Request().Context(), c.Param("doctorId"), req)
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Doctor not found")
	case errors.Is(err, ErrNoFields):
		return echo.NewHTTPError(http.StatusBadRequest, "No fields to update")
	case errors.Is(err, ErrNameRequired):
		return echo.NewHTTPError(http.StatusBadRequest, "Field name cannot be empty")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update doctor").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Doctor updated successfully",
		"doctor":  d,
	})
}

func (h *Handler) Delete(c echo.Context) error {
	id := c.Param("doctorId")
	err := h.svc.Delete(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Doctor not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete doctor").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":  "Doctor deleted successfully",
		"doctorId": id,
	})
}
