// internal/server/webhook.go
package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AzlanEh/EducationPlus-sub000/internal/observability"
	"github.com/AzlanEh/EducationPlus-sub000/internal/service"
	"github.com/AzlanEh/EducationPlus-sub000/pkg/bunny"
)

const maxWebhookBytes = 64 << 10

type WebhookProcessor interface {
	HandleWebhook(ctx context.Context, p bunny.WebhookPayload) *service.WebhookResult
}

// WebhookHandler acknowledges provider callbacks with 200 whatever happens
// downstream, so the provider does not retry payloads that can never succeed.
// The only non-200 answer is 401 for a bad signature.
type WebhookHandler struct {
	processor WebhookProcessor
	verifier  *bunny.WebhookVerifier
	metrics   *observability.Metrics
}

func NewWebhookHandler(p WebhookProcessor, v *bunny.WebhookVerifier, m *observability.Metrics) *WebhookHandler {
	if !v.Enabled() {
		slog.Warn("webhook signature verification disabled: no secret configured, all deliveries are accepted")
	}
	return &WebhookHandler{processor: p, verifier: v, metrics: m}
}

func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		h.metrics.WebhookDelivery(service.WebhookInvalid)
		c.JSON(http.StatusOK, service.WebhookResult{Error: "Failed to read request body"})
		return
	}

	if h.verifier.Enabled() {
		if !h.verifier.Verify(body, c.GetHeader(bunny.SignatureHeader)) {
			slog.Warn("webhook signature rejected", "clientIp", c.ClientIP())
			h.metrics.WebhookDelivery(service.WebhookRejected)
			c.JSON(http.StatusUnauthorized, service.WebhookResult{Error: "Invalid signature"})
			return
		}
	} else {
		slog.Debug("webhook accepted without signature check", "verification", "disabled")
	}

	var payload bunny.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.Warn("malformed webhook payload", "error", err)
		h.metrics.WebhookDelivery(service.WebhookInvalid)
		c.JSON(http.StatusOK, service.WebhookResult{Error: "Invalid JSON payload"})
		return
	}

	c.JSON(http.StatusOK, h.processor.HandleWebhook(c.Request.Context(), payload))
}
