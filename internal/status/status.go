// internal/status/status.go

// Package status maps the video provider's numeric status codes onto the
// service's closed lifecycle enums. Unknown codes never fail: they fall back
// to the earliest state of each lifecycle.
package status

import "github.com/AzlanEh/EducationPlus-sub000/internal/models"

// Provider video encode codes.
const (
	VideoCodeCreated    = 0
	VideoCodeUploaded   = 1
	VideoCodeProcessing = 2
	VideoCodeTranscoded = 3
	VideoCodeFinished   = 4
	VideoCodeError      = 5
)

// Provider live session codes.
const (
	LiveCodeIdle     = 0
	LiveCodeStarting = 1
	LiveCodeRunning  = 2
	LiveCodeStopping = 3
	LiveCodeStopped  = 4
)

const (
	DefaultVideoStatus = models.VideoStatusPending
	DefaultLiveStatus  = models.LiveStatusNotStarted
)

func Video(code int) models.VideoStatus {
	switch code {
	case VideoCodeCreated:
		return models.VideoStatusPending
	case VideoCodeUploaded:
		return models.VideoStatusUploading
	case VideoCodeProcessing, VideoCodeTranscoded:
		return models.VideoStatusProcessing
	case VideoCodeFinished:
		return models.VideoStatusReady
	case VideoCodeError:
		return models.VideoStatusError
	default:
		return DefaultVideoStatus
	}
}

func Live(code int) models.LiveStatus {
	switch code {
	case LiveCodeIdle:
		return models.LiveStatusNotStarted
	case LiveCodeStarting:
		return models.LiveStatusStarting
	case LiveCodeRunning:
		return models.LiveStatusRunning
	case LiveCodeStopping:
		return models.LiveStatusStopping
	case LiveCodeStopped:
		return models.LiveStatusStopped
	default:
		return DefaultLiveStatus
	}
}

// Learner-facing playback messages.
const (
	MessageNotStarted = "Stream has not started yet"
	MessageEnded      = "Stream has ended"
)

// LearnerVisible lists the states in which a published stream shows up in
// learner listings.
var LearnerVisible = []models.LiveStatus{
	models.LiveStatusScheduled,
	models.LiveStatusStarting,
	models.LiveStatusRunning,
}

// CanWatch reports whether a learner may open the player.
func CanWatch(s models.LiveStatus) bool {
	return s.IsLive()
}

// PlaybackMessage explains why CanWatch is false. It is empty when the
// stream is watchable.
func PlaybackMessage(s models.LiveStatus) string {
	if CanWatch(s) {
		return ""
	}
	switch s {
	case models.LiveStatusScheduled, models.LiveStatusNotStarted:
		return MessageNotStarted
	}
	return MessageEnded
}
