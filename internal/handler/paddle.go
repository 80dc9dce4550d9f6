package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"licensing-webhooks/internal/config"
	"licensing-webhooks/internal/model"
	"licensing-webhooks/internal/service"
	"licensing-webhooks/pkg/logging"
)

type PaddleHandler struct {
	paddleService   service.PaddleService
	webhookSecret   string
	signatureMaxAge time.Duration
}

func NewPaddleHandler(paddleService service.PaddleService, cfg *config.Paddle) *PaddleHandler {
	return &PaddleHandler{
		paddleService:   paddleService,
		webhookSecret:   cfg.WebhookSecret,
		signatureMaxAge: time.Duration(cfg.SignatureMaxAge) * time.Second,
	}
}

// Webhook receives one Paddle notification per delivery.
func (h *PaddleHandler) Webhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	if err := VerifyPaddleSignature(h.webhookSecret, body, c.Request().Header.Get("Paddle-Signature"), h.signatureMaxAge); err != nil {
		logging.Errorf("paddle webhook rejected: %v", err)
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": err.Error()})
	}

	var event model.PaddleEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid webhook payload"})
	}
	logging.Infof("paddle webhook event %s type %s verified", event.EventID, event.EventType)

	outcome, err := h.paddleService.Dispatch(ctx, &event)
	if err != nil {
		logging.Errorf("paddle event %s: %v", event.EventID, err)
		return c.JSON(http.StatusBadRequest, map[string]string{"message": err.Error()})
	}

	if outcome.Status == http.StatusNoContent {
		return c.NoContent(outcome.Status)
	}
	return c.JSON(outcome.Status, outcome)
}
