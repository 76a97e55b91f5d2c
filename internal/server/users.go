// internal/server/users.go
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AzlanEh/EducationPlus-sub000/internal/models"
)

type Users interface {
	List(ctx context.Context, role models.Role) ([]models.User, error)
	SetRole(ctx context.Context, actorID, targetID primitive.ObjectID, role models.Role) (*models.User, error)
	Delete(ctx context.Context, actorID, targetID primitive.ObjectID) error
}

type Streaks interface {
	Get(ctx context.Context, userID primitive.ObjectID) (*models.StudyStreak, error)
}

type UserHandler struct {
	users   Users
	streaks Streaks
}

func NewUserHandler(users Users, streaks Streaks) *UserHandler {
	return &UserHandler{users: users, streaks: streaks}
}

type userListQuery struct {
	Role string `form:"role" binding:"omitempty,oneof=admin student"`
}

type setRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin student"`
}

type userListResponse struct {
	Users []models.User `json:"users"`
}

func (h *UserHandler) List(c *gin.Context) {
	var q userListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	users, err := h.users.List(c.Request.Context(), models.Role(q.Role))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userListResponse{Users: users})
}

func (h *UserHandler) SetRole(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := h.users.SetRole(c.Request.Context(), currentUser(c).ID, id, models.Role(req.Role))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), currentUser(c).ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse{Success: true, Message: "User deleted"})
}

// Streak returns the caller's own study streak.
func (h *UserHandler) Streak(c *gin.Context) {
	streak, err := h.streaks.Get(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, streak)
}
