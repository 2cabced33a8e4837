package study

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
	g.GET("/studies", h.List)
	g.POST("/studies", h.Create)
	g.GET("/studies/:studyId", h.Get)
	g.PUT("/studies/:studyId", h.Update)
	g.DELETE("/studies/:studyId", h.Delete)
}

// validationError maps service validation failures to a 400, or returns nil.
func validationError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrNameRequired):
		return echo.NewHTTPError(http.StatusBadRequest, "Missing required field: name")
	case errors.Is(err, ErrNoFields):
		return echo.NewHTTPError(http.StatusBadRequest, "No fields to update")
	case errors.Is(err, ErrInvalidDuration), errors.Is(err, ErrNegativeHonorario):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func (h *Handler) List(c echo.Context) error {
	studies, err := h.svc.List(c.Request().Context(), c.QueryParam("includeInactive") == "true")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list studies").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"studies": studies,
		"count":   len(studies),
	})
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
	}
	st, err := h.svc.Create(c.Request().Context(), req)
	if he := validationError(err); he != nil {
		return he
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create study").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Study created successfully",
		"study":   st,
	})
}

func (h *Handler) Get(c echo.Context) error {
	st, err := h.svc.Get(c.Request().Context(), c.Param("studyId"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Study not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get study").SetInternal(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) Update(c echo.Context) error {
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
	}
	st, err := h.svc.Update(c.Request().Context(), c.Param("studyId"), req)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Study not found")
	}
	if he := validationError(err); he != nil {
		return he
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update study").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Study updated successfully",
		"study":   st,
	})
}

func (h *Handler) Delete(c echo.Context) error {
	id := c.Param("studyId")
	err := h.svc.Delete(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Study not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete study").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Study deleted successfully",
		"studyId": id,
	})
}
