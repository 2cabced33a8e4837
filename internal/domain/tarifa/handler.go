package tarifa

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	msgNotFound       = "Tarifa no encontrada"
	msgNoFields       = "No se proporcionaron campos para actualizar"
	msgMissingFields  = `Los campos "estudioId", "obraSocialId" y "precio" son obligatorios`
	msgConflictCreate = "Ya existe una tarifa para esta combinación de estudio y obra social"
	msgConflictUpdate = "Ya existe otra tarifa para esta combinación de estudio y obra social"
)

// conflictBody is the 409 payload; it names the tarifa already holding the pair.
type conflictBody struct {
	Error           string  `json:"error"`
	TarifaExistente *Tarifa `json:"tarifaExistente,omitempty"`
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/tarifas", h.List)
	g.POST("/tarifas", h.Create)
	g.GET("/tarifas/:tarifaId", h.Get)
	g.PUT("/tarifas/:tarifaId", h.Update)
	g.DELETE("/tarifas/:tarifaId", h.Delete)
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("tarifaId"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	}
	return id, nil
}

func mapError(err error, conflictMsg, fallback string) error {
	var ce *ConflictError
	switch {
	case errors.As(err, &ce):
		return echo.NewHTTPError(http.StatusConflict, conflictBody{Error: conflictMsg, TarifaExistente: ce.Existing})
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	case errors.Is(err, ErrMissingFields):
		return echo.NewHTTPError(http.StatusBadRequest, msgMissingFields)
	case errors.Is(err, ErrNoFields):
		return echo.NewHTTPError(http.StatusBadRequest, msgNoFields)
	case errors.Is(err, ErrNegativePrecio):
		return echo.NewHTTPError(http.StatusBadRequest, "El precio no puede ser negativo")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, fallback).SetInternal(err)
}

func (h *Handler) List(c echo.Context) error {
	f := ListFilter{
		EstudioID:    c.QueryParam("estudioId"),
		ObraSocialID: c.QueryParam("obraSocialId"),
	}
	tarifas, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list tarifas").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tarifas": tarifas,
		"count":   len(tarifas),
	})
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
	}
	t, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return mapError(err, msgConflictCreate, "Failed to create tarifa")
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Tarifa creada correctamente",
		"tarifa":  t,
	})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	t, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return mapError(err, msgConflictCreate, "Failed to get tarifa")
	}
	return c.JSON(http.StatusOK, t)
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
	t, err := h.svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return mapError(err, msgConflictUpdate, "Failed to update tarifa")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Tarifa actualizada correctamente",
		"tarifa":  t,
	})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return mapError(err, msgConflictCreate, "Failed to delete tarifa")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":  "Tarifa eliminada correctamente",
		"tarifaId": id,
	})
}
