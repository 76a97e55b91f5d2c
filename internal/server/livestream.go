// internal/server/livestream.go
package server

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AzlanEh/EducationPlus-sub000/internal/models"
	"github.com/AzlanEh/EducationPlus-sub000/internal/service"
)

const maxThumbnailBytes = 5 << 20

type LiveStreams interface {
	Create(ctx context.Context, instructorID primitive.ObjectID, in service.CreateLiveStreamInput) (*models.LiveStream, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.LiveStream, error)
	List(ctx context.Context, f models.LiveStreamFilter) ([]models.LiveStream, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, in service.UpdateLiveStreamInput) (*models.LiveStream, error)
	Start(ctx context.Context, id primitive.ObjectID) (*models.LiveStream, error)
	End(ctx context.Context, id primitive.ObjectID) (*models.LiveStream, error)
	SyncStatus(ctx context.Context, id primitive.ObjectID) (*service.SyncResult, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListPublished(ctx context.Context, courseID *primitive.ObjectID) ([]service.PublicLiveStream, error)
	GetPlayback(ctx context.Context, id primitive.ObjectID) (*service.Playback, error)
	AttachRecording(ctx context.Context, id, videoID primitive.ObjectID) (*models.LiveStream, error)
	UploadThumbnail(ctx context.Context, id primitive.ObjectID, fileName, contentType string, body io.Reader) (*models.LiveStream, error)
}

type LiveStreamHandler struct {
	svc LiveStreams
}

func NewLiveStreamHandler(svc LiveStreams) *LiveStreamHandler {
	return &LiveStreamHandler{svc: svc}
}

type createLiveStreamRequest struct {
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description" binding:"max=5000"`
	CourseID    string     `json:"courseId" binding:"omitempty,objectid"`
	ScheduledAt *time.Time `json:"scheduledAt"`
	Thumbnail   string     `json:"thumbnail" binding:"omitempty,url"`
	IsPublished bool       `json:"isPublished"`
}

type updateLiveStreamRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string    `json:"description" binding:"omitempty,max=5000"`
	CourseID    *string    `json:"courseId" binding:"omitempty,objectid"`
	ScheduledAt *time.Time `json:"scheduledAt"`
	Thumbnail   *string    `json:"thumbnail" binding:"omitempty,url"`
	IsPublished *bool      `json:"isPublished"`
}

type listLiveStreamsQuery struct {
	Status   string `form:"status"`
	CourseID string `form:"courseId" binding:"omitempty,objectid"`
	Limit    int64  `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset   int64  `form:"offset" binding:"omitempty,min=0"`
}

type attachRecordingRequest struct {
	VideoID string `json:"videoId" binding:"required,objectid"`
}

type liveStreamListResponse struct {
	Streams []models.LiveStream `json:"streams"`
	Total   int64               `json:"total"`
	Limit   int64               `json:"limit"`
	Offset  int64               `json:"offset"`
}

type publicLiveStreamsResponse struct {
	Streams []service.PublicLiveStream `json:"streams"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (h *LiveStreamHandler) Create(c *gin.Context) {
	var req createLiveStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	stream, err := h.svc.Create(c.Request.Context(), currentUser(c).ID, service.CreateLiveStreamInput{
		Title:       req.Title,
		Description: req.Description,
		CourseID:    optionalObjectID(req.CourseID),
		ScheduledAt: req.ScheduledAt,
		Thumbnail:   req.Thumbnail,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stream)
}

func (h *LiveStreamHandler) List(c *gin.Context) {
	var q listLiveStreamsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	if q.Limit == 0 {
		q.Limit = 20
	}

	f := models.LiveStreamFilter{
		CourseID: optionalObjectID(q.CourseID),
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	for _, s := range strings.Split(q.Status, ",") {
		if s = strings.TrimSpace(s); s != "" {
			f.Statuses = append(f.Statuses, models.LiveStatus(s))
		}
	}

	streams, total, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, liveStreamListResponse{Streams: streams, Total: total, Limit: q.Limit, Offset: q.Offset})
}

func (h *LiveStreamHandler) Get(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	stream, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stream)
}

func (h *LiveStreamHandler) Update(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req updateLiveStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	in := service.UpdateLiveStreamInput{
		Title:       req.Title,
		Description: req.Description,
		ScheduledAt: req.ScheduledAt,
		Thumbnail:   req.Thumbnail,
		IsPublished: req.IsPublished,
	}
	if req.CourseID != nil {
		in.CourseID = optionalObjectID(*req.CourseID)
	}

	stream, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stream)
}

func (h *LiveStreamHandler) Start(c *gin.Context) {
	h.transition(c, h.svc.Start)
}

func (h *LiveStreamHandler) End(c *gin.Context) {
	h.transition(c, h.svc.End)
}

func (h *LiveStreamHandler) transition(c *gin.Context, fn func(context.Context, primitive.ObjectID) (*models.LiveStream, error)) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	stream, err := fn(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stream)
}

func (h *LiveStreamHandler) Sync(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	res, err := h.svc.SyncStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *LiveStreamHandler) Delete(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse{Success: true, Message: "Live stream deleted"})
}

func (h *LiveStreamHandler) AttachRecording(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req attachRecordingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	stream, err := h.svc.AttachRecording(c.Request.Context(), id, *optionalObjectID(req.VideoID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stream)
}

func (h *LiveStreamHandler) UploadThumbnail(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxThumbnailBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "file is required", Code: "VALIDATION"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	stream, err := h.svc.UploadThumbnail(c.Request.Context(), id, fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stream)
}

// Learner endpoints.

type courseQuery struct {
	CourseID string `form:"courseId" binding:"omitempty,objectid"`
}

func (h *LiveStreamHandler) ListPublished(c *gin.Context) {
	var q courseQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	streams, err := h.svc.ListPublished(c.Request.Context(), optionalObjectID(q.CourseID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, publicLiveStreamsResponse{Streams: streams})
}

func (h *LiveStreamHandler) Playback(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	pb, err := h.svc.GetPlayback(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pb)
}

func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid " + name, Code: "VALIDATION"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// optionalObjectID expects input already checked by the objectid tag.
func optionalObjectID(hex string) *primitive.ObjectID {
	if hex == "" {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil
	}
	return &id
}
