package appointment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	msgMissingFields = "Missing required fields: patientName, startTime (o date + time para formato Google Form)"
	msgNotFound      = "Appointment not found"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the read and delete routes. Create is registered
// separately with RegisterCreate so it can carry its own rate limit.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/appointments", h.List)
	g.GET("/appointments/:appointmentId", h.Get)
	g.DELETE("/appointments/:appointmentId", h.Delete)
}

func (h *Handler) RegisterCreate(g *echo.Group, m ...echo.MiddlewareFunc) {
	g.POST("/appointments", h.Create, m...)
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("appointmentId"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	}
	return id, nil
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
	}

	a, err := h.svc.Create(c.Request().Context(), req)
	switch {
	case errors.Is(err, ErrMissingFields):
		return echo.NewHTTPError(http.StatusBadRequest, msgMissingFields)
	case errors.Is(err, ErrInvalidStart):
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid startTime (o date YYYY-MM-DD + time HH:mm)").SetInternal(err)
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create appointment").SetInternal(err)
	}

	resp := map[string]interface{}{
		"appointmentId":   a.AppointmentID,
		"calendarEventId": a.CalendarEventID,
		"status":          a.Status,
	}
	if a.CalendarLink != nil {
		resp["calendarLink"] = *a.CalendarLink
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) List(c echo.Context) error {
	from, to, doctorID := c.QueryParam("from"), c.QueryParam("to"), c.QueryParam("doctorId")
	q, err := ParseListQuery(from, to, doctorID)
	switch {
	case errors.Is(err, ErrRangeMissing):
		return echo.NewHTTPError(http.StatusBadRequest,
			"Query params 'from' y 'to' son requeridos (formato YYYY-MM-DD). Ej: /appointments?from=2024-02-01&to=2024-02-28&doctorId=abc1")
	case errors.Is(err, ErrRangeFormat):
		return echo.NewHTTPError(http.StatusBadRequest, "'from' y 'to' deben tener formato YYYY-MM-DD")
	case errors.Is(err, ErrRangeOrder):
		return echo.NewHTTPError(http.StatusBadRequest, "'from' no puede ser mayor que 'to'")
	}

	appts, err := h.svc.List(c.Request().Context(), q)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error al listar turnos").SetInternal(err)
	}

	filters := map[string]string{"from": from, "to": to}
	if doctorID != "" {
		filters["doctorId"] = doctorID
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"appointments": appts,
		"count":        len(appts),
		"filters":      filters,
	})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get appointment").SetInternal(err)
	}
	return c.JSON(http.StatusOK, a)
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
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete appointment").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":       "Appointment deleted successfully",
		"appointmentId": id,
	})
}
