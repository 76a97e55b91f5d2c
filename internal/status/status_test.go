package status

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AzlanEh/EducationPlus-sub000/internal/models"
)

func TestVideo_KnownCodes(t *testing.T) {
	tests := []struct {
		code int
		want models.VideoStatus
	}{
		{0, models.VideoStatusPending},
		{1, models.VideoStatusUploading},
		{2, models.VideoStatusProcessing},
		{3, models.VideoStatusProcessing},
		{4, models.VideoStatusReady},
		{5, models.VideoStatusError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Video(tt.code), "code %d", tt.code)
	}
}

func TestLive_KnownCodes(t *testing.T) {
	tests := []struct {
		code int
		want models.LiveStatus
	}{
		{0, models.LiveStatusNotStarted},
		{1, models.LiveStatusStarting},
		{2, models.LiveStatusRunning},
		{3, models.LiveStatusStopping},
		{4, models.LiveStatusStopped},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Live(tt.code), "code %d", tt.code)
	}
}

func TestUnknownCodesFallBackToEarliestState(t *testing.T) {
	for _, code := range []int{-100, -1, 6, 7, 42, 1 << 20} {
		assert.Equal(t, models.VideoStatusPending, Video(code), "video code %d", code)
	}
	for _, code := range []int{-1, 5, 6, 99} {
		assert.Equal(t, models.LiveStatusNotStarted, Live(code), "live code %d", code)
	}
}

func TestCanWatchAndMessage(t *testing.T) {
	tests := []struct {
		status   models.LiveStatus
		canWatch bool
		message  string
	}{
		{models.LiveStatusScheduled, false, MessageNotStarted},
		{models.LiveStatusNotStarted, false, MessageNotStarted},
		{models.LiveStatusStarting, true, ""},
		{models.LiveStatusRunning, true, ""},
		{models.LiveStatusStopping, false, MessageEnded},
		{models.LiveStatusStopped, false, MessageEnded},
		{models.LiveStatusEnded, false, MessageEnded},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.canWatch, CanWatch(tt.status))
			assert.Equal(t, tt.message, PlaybackMessage(tt.status))
		})
	}
}
