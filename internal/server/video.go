// internal/server/video.go
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AzlanEh/EducationPlus-sub000/internal/models"
	"github.com/AzlanEh/EducationPlus-sub000/internal/service"
)

type Videos interface {
	CreateUpload(ctx context.Context, in service.CreateUploadInput) (*service.UploadSlot, error)
	MarkUploading(ctx context.Context, id primitive.ObjectID) (*models.Video, error)
	SyncStatus(ctx context.Context, id primitive.ObjectID) (*service.VideoSyncResult, error)
	Update(ctx context.Context, id primitive.ObjectID, in service.UpdateVideoInput) (*models.Video, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, f models.VideoFilter) ([]service.VideoView, error)
	ListPublished(ctx context.Context, courseID primitive.ObjectID, moduleID *primitive.ObjectID) ([]service.VideoView, error)
	GetPublished(ctx context.Context, id primitive.ObjectID) (*service.VideoView, error)
	RecordProgress(ctx context.Context, userID, videoID primitive.ObjectID, watchedSeconds int, completed bool) (*models.VideoProgress, error)
}

type VideoHandler struct {
	svc Videos
}

func NewVideoHandler(svc Videos) *VideoHandler {
	return &VideoHandler{svc: svc}
}

type createUploadRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=5000"`
	CourseID    string `json:"courseId" binding:"required,objectid"`
	ModuleID    string `json:"moduleId" binding:"omitempty,objectid"`
	Order       int    `json:"order" binding:"min=0"`
}

type updateVideoRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	ModuleID    *string `json:"moduleId" binding:"omitempty,objectid"`
	Order       *int    `json:"order" binding:"omitempty,min=0"`
	IsPublished *bool   `json:"isPublished"`
}

type videoListQuery struct {
	CourseID string `form:"courseId" binding:"omitempty,objectid"`
	ModuleID string `form:"moduleId" binding:"omitempty,objectid"`
}

type publishedVideosQuery struct {
	CourseID string `form:"courseId" binding:"required,objectid"`
	ModuleID string `form:"moduleId" binding:"omitempty,objectid"`
}

type progressRequest struct {
	WatchedSeconds int  `json:"watchedSeconds" binding:"min=0"`
	Completed      bool `json:"completed"`
}

type videoListResponse struct {
	Videos []service.VideoView `json:"videos"`
}

func (h *VideoHandler) CreateUpload(c *gin.Context) {
	var req createUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	slot, err := h.svc.CreateUpload(c.Request.Context(), service.CreateUploadInput{
		Title:       req.Title,
		Description: req.Description,
		CourseID:    *optionalObjectID(req.CourseID),
		ModuleID:    optionalObjectID(req.ModuleID),
		Order:       req.Order,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, slot)
}

func (h *VideoHandler) MarkUploading(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	video, err := h.svc.MarkUploading(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, video)
}

func (h *VideoHandler) Sync(c *gin.Context) {
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

func (h *VideoHandler) Update(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req updateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	in := service.UpdateVideoInput{
		Title:       req.Title,
		Description: req.Description,
		Order:       req.Order,
		IsPublished: req.IsPublished,
	}
	if req.ModuleID != nil {
		in.ModuleID = optionalObjectID(*req.ModuleID)
	}
	video, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, video)
}

func (h *VideoHandler) Delete(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse{Success: true, Message: "Video deleted"})
}

func (h *VideoHandler) List(c *gin.Context) {
	var q videoListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	videos, err := h.svc.List(c.Request.Context(), models.VideoFilter{
		CourseID: optionalObjectID(q.CourseID),
		ModuleID: optionalObjectID(q.ModuleID),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, videoListResponse{Videos: videos})
}

func (h *VideoHandler) ListPublished(c *gin.Context) {
	var q publishedVideosQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	videos, err := h.svc.ListPublished(c.Request.Context(), *optionalObjectID(q.CourseID), optionalObjectID(q.ModuleID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, videoListResponse{Videos: videos})
}

func (h *VideoHandler) GetPublished(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	video, err := h.svc.GetPublished(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, video)
}

func (h *VideoHandler) RecordProgress(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	progress, err := h.svc.RecordProgress(c.Request.Context(), currentUser(c).ID, id, req.WatchedSeconds, req.Completed)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}
