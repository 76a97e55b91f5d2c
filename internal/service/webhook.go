// internal/service/webhook.go
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/AzlanEh/EducationPlus-sub000/internal/models"
	"github.com/AzlanEh/EducationPlus-sub000/internal/repository"
	"github.com/AzlanEh/EducationPlus-sub000/pkg/bunny"
)

// Webhook delivery outcomes, also used as metric labels.
const (
	WebhookApplied      = "applied"
	WebhookUnknownVideo = "unknown_video"
	WebhookInvalid      = "invalid"
	WebhookRejected     = "rejected"
	WebhookFailed       = "failed"
)

// WebhookResult is the acknowledgement body. The provider retries on
// anything but 2xx, so failures are reported here instead.
type WebhookResult struct {
	Success bool               `json:"success"`
	Message string             `json:"message,omitempty"`
	Error   string             `json:"error,omitempty"`
	VideoID string             `json:"videoId,omitempty"`
	Status  models.VideoStatus `json:"status,omitempty"`
	Outcome string             `json:"-"`
}

// HandleWebhook applies one encode status notification.
func (s *VideoService) HandleWebhook(ctx context.Context, p bunny.WebhookPayload) *WebhookResult {
	if p.VideoGUID == "" {
		s.metrics.WebhookDelivery(WebhookInvalid)
		return &WebhookResult{Error: "Missing VideoGuid", Outcome: WebhookInvalid}
	}

	video, err := s.store.GetByProviderID(ctx, p.VideoGUID)
	if errors.Is(err, repository.ErrNotFound) {
		slog.Info("webhook for unknown video", "videoGuid", p.VideoGUID, "libraryId", p.VideoLibraryID)
		s.metrics.WebhookDelivery(WebhookUnknownVideo)
		return &WebhookResult{Success: true, Message: "Video not found in database", Outcome: WebhookUnknownVideo}
	}
	if err != nil {
		return s.webhookFailed(p, err)
	}

	if err := s.ApplyProviderStatus(ctx, video, p.Status); err != nil {
		return s.webhookFailed(p, err)
	}

	slog.Info("video status updated from webhook", "id", video.ID.Hex(), "status", video.Status, "code", p.Status)
	s.metrics.WebhookDelivery(WebhookApplied)
	return &WebhookResult{
		Success: true,
		Message: "Video status updated",
		VideoID: video.ID.Hex(),
		Status:  video.Status,
		Outcome: WebhookApplied,
	}
}

func (s *VideoService) webhookFailed(p bunny.WebhookPayload, err error) *WebhookResult {
	slog.Error("webhook processing failed", "videoGuid", p.VideoGUID, "error", err)
	s.metrics.WebhookDelivery(WebhookFailed)
	return &WebhookResult{Error: "Failed to process webhook", Outcome: WebhookFailed}
}
