package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"licensing-webhooks/internal/config"
	"licensing-webhooks/internal/model"
	"licensing-webhooks/internal/service"
	"licensing-webhooks/pkg/logging"
)

type FastSpringHandler struct {
	fastSpringService service.FastSpringService
	hmacSecret        string
}

func NewFastSpringHandler(fastSpringService service.FastSpringService, cfg *config.FastSpring) *FastSpringHandler {
	return &FastSpringHandler{
		fastSpringService: fastSpringService,
		hmacSecret:        cfg.HMACSecret,
	}
}

type fsEventResult struct {
	EventID string `json:"eventId"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// Webhook receives one FastSpring delivery, which batches multiple events.
// Each event is dispatched independently; when any of them fails the whole
// delivery is answered with a 500 so FastSpring redelivers the batch, and
// the processed-event table keeps the already completed events from
// running twice.
func (h *FastSpringHandler) Webhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	if err := VerifyFastSpringSignature(h.hmacSecret, body, c.Request().Header.Get("X-FS-Signature")); err != nil {
		logging.Errorf("fastspring webhook rejected: %v", err)
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": err.Error()})
	}

	var batch model.FSWebhookBatch
	if err := json.Unmarshal(body, &batch); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid webhook payload"})
	}

	results := make([]fsEventResult, 0, len(batch.Events))
	failed := false
	for i := range batch.Events {
		event := &batch.Events[i]
		logging.Infof("fastspring webhook event %s type %s received", event.ID, event.Type)

		outcome, err := h.fastSpringService.Dispatch(ctx, event)
		if err != nil {
			logging.Errorf("fastspring event %s: %v", event.ID, err)
			failed = true
			results = append(results, fsEventResult{EventID: event.ID, Status: http.StatusBadRequest, Message: err.Error()})
			continue
		}
		results = append(results, fsEventResult{EventID: event.ID, Status: outcome.Status, Message: outcome.Message})
	}

	status := http.StatusOK
	if failed {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, map[string]interface{}{"events": results})
}
