package obrasocial

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	msgNotFound = "Obra social no encontrada"
	msgNoFields = "No se proporcionaron campos para actualizar"
	msgNombre   = `El campo "nombre" es obligatorio`
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/obras-sociales", h.List)
	g.POST("/obras-sociales", h.Create)
	g.GET("/obras-sociales/:obraSocialId", h.Get)
	g.PUT("/obras-sociales/:obraSocialId", h.Update)
	g.DELETE("/obras-sociales/:obraSocialId", h.Delete)
}

// pathID parses the :obraSocialId param. A malformed id cannot exist, so it
// is reported as not found.
func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("obraSocialId"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	}
	return id, nil
}

func (h *Handler) List(c echo.Context) error {
	var f ListFilter
	if v := c.QueryParam("activa"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "activa must be true or false")
		}
		f.Activa = &b
	}
	list, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list obras sociales").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"obrasSociales": list,
		"count":         len(list),
	})
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
	}
	o, err := h.svc.Create(c.Request().Context(), req)
	if errors.Is(err, ErrNombreRequired) {
		return echo.NewHTTPError(http.StatusBadRequest, msgNombre)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create obra social").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":    "Obra social creada correctamente",
		"obraSocial": o,
	})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	o, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get obra social").SetInternal(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
	}
	o, err := h.svc.Update(c.Request().Context(), id, req)
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	case errors.Is(err, ErrNoFields):
		return echo.NewHTTPError(http.StatusBadRequest, msgNoFields)
	case errors.Is(err, ErrNombreRequired):
		return echo.NewHTTPError(http.StatusBadRequest, msgNombre)
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update obra social").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":    "Obra social actualizada correctamente",
		"obraSocial": o,
	})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	err = h.svc.Delete(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete obra social").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":      "Obra social eliminada correctamente",
		"obraSocialId": id,
	})
}
