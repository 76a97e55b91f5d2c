// internal/server/dpp.go
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AzlanEh/EducationPlus-sub000/internal/models"
	"github.com/AzlanEh/EducationPlus-sub000/internal/service"
)

type DPPs interface {
	Create(ctx context.Context, createdBy primitive.ObjectID, in service.DPPInput) (*models.DPP, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.DPP, error)
	List(ctx context.Context, f models.DPPFilter) ([]models.DPP, error)
	Update(ctx context.Context, id primitive.ObjectID, in service.DPPInput) (*models.DPP, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListPublished(ctx context.Context, courseID *primitive.ObjectID) ([]service.DPPSummary, error)
	GetForAttempt(ctx context.Context, id primitive.ObjectID) (*service.DPPForAttempt, error)
	SubmitAttempt(ctx context.Context, userID, dppID primitive.ObjectID, answers []models.SubmittedAnswer) (*service.SubmitResult, error)
	ListAttempts(ctx context.Context, userID primitive.ObjectID, dppID *primitive.ObjectID) ([]models.DPPAttempt, error)
}

type DPPHandler struct {
	svc DPPs
}

func NewDPPHandler(svc DPPs) *DPPHandler {
	return &DPPHandler{svc: svc}
}

type questionRequest struct {
	Question      string   `json:"question" binding:"required"`
	Options       []string `json:"options" binding:"len=4,dive,required"`
	CorrectAnswer int      `json:"correctAnswer" binding:"min=0,max=3"`
	Marks         int      `json:"marks" binding:"min=0"`
	Explanation   string   `json:"explanation"`
}

type dppRequest struct {
	Title       string            `json:"title" binding:"required,max=200"`
	Description string            `json:"description" binding:"max=5000"`
	CourseID    string            `json:"courseId" binding:"required,objectid"`
	Questions   []questionRequest `json:"questions" binding:"required,min=1,dive"`
	IsPublished bool              `json:"isPublished"`
}

func (r dppRequest) input() service.DPPInput {
	qs := make([]models.Question, len(r.Questions))
	for i, q := range r.Questions {
		qs[i] = models.Question{
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Marks:         q.Marks,
			Explanation:   q.Explanation,
		}
	}
	return service.DPPInput{
		Title:       r.Title,
		Description: r.Description,
		CourseID:    *optionalObjectID(r.CourseID),
		Questions:   qs,
		IsPublished: r.IsPublished,
	}
}

type submitAttemptRequest struct {
	Answers []models.SubmittedAnswer `json:"answers" binding:"required"`
}

type attemptsQuery struct {
	DPPID string `form:"dppId" binding:"omitempty,objectid"`
}

type dppListResponse struct {
	DPPs []models.DPP `json:"dpps"`
}

type dppSummaryResponse struct {
	DPPs []service.DPPSummary `json:"dpps"`
}

type attemptListResponse struct {
	Attempts []models.DPPAttempt `json:"attempts"`
}

func (h *DPPHandler) Create(c *gin.Context) {
	var req dppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	dpp, err := h.svc.Create(c.Request.Context(), currentUser(c).ID, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dpp)
}

func (h *DPPHandler) Get(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	dpp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dpp)
}

func (h *DPPHandler) List(c *gin.Context) {
	var q courseQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	dpps, err := h.svc.List(c.Request.Context(), models.DPPFilter{CourseID: optionalObjectID(q.CourseID)})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dppListResponse{DPPs: dpps})
}

func (h *DPPHandler) Update(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req dppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	dpp, err := h.svc.Update(c.Request.Context(), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dpp)
}

func (h *DPPHandler) Delete(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse{Success: true, Message: "DPP deleted"})
}

func (h *DPPHandler) ListPublished(c *gin.Context) {
	var q courseQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	dpps, err := h.svc.ListPublished(c.Request.Context(), optionalObjectID(q.CourseID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dppSummaryResponse{DPPs: dpps})
}

func (h *DPPHandler) GetForAttempt(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	view, err := h.svc.GetForAttempt(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *DPPHandler) SubmitAttempt(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req submitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	res, err := h.svc.SubmitAttempt(c.Request.Context(), currentUser(c).ID, id, req.Answers)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *DPPHandler) ListAttempts(c *gin.Context) {
	var q attemptsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	attempts, err := h.svc.ListAttempts(c.Request.Context(), currentUser(c).ID, optionalObjectID(q.DPPID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attemptListResponse{Attempts: attempts})
}
