package confirmation

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/turnos/turnos/internal/platform/whatsapp"
)

// maxEnvelopeBytes caps webhook payloads read into memory.
const maxEnvelopeBytes = 1 << 20

type Handler struct {
	svc         *Service
	verifyToken string
	logger      zerolog.Logger
}

func NewHandler(svc *Service, verifyToken string, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, verifyToken: verifyToken, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group, m ...echo.MiddlewareFunc) {
	g.GET("/webhook/whatsapp", h.Verify, m...)
	g.POST("/webhook/whatsapp", h.Receive, m...)
}

// Verify answers the subscription handshake by echoing hub.challenge.
func (h *Handler) Verify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	if mode == "subscribe" && token != "" && token == h.verifyToken {
		return c.String(http.StatusOK, c.QueryParam("hub.challenge"))
	}
	return c.JSON(http.StatusForbidden, map[string]string{"error": "Verification failed"})
}

// Receive processes inbound messages. It always answers 200 "OK" so the
// platform does not redeliver; failures are only logged.
func (h *Handler) Receive(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxEnvelopeBytes))
	if err != nil {
		h.logger.Error().Err(err).Msg("read webhook body")
		return c.String(http.StatusOK, "OK")
	}
	var env whatsapp.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		h.logger.Warn().Err(err).Msg("malformed webhook payload")
		return c.String(http.StatusOK, "OK")
	}

	for _, msg := range env.Messages() {
		outcome, err := h.svc.Handle(ctx, msg)
		if err != nil {
			h.logger.Error().Err(err).Str("from", msg.From).Msg("webhook message failed")
			continue
		}
		h.logger.Debug().Str("from", msg.From).Str("outcome", string(outcome)).Msg("webhook message handled")
	}
	return c.String(http.StatusOK, "OK")
}
