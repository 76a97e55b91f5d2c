// internal/service/users.go
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AzlanEh/EducationPlus-sub000/internal/models"
	"github.com/AzlanEh/EducationPlus-sub000/internal/repository"
)

type UserService struct {
	users    UserStore
	sessions SessionStore
	now      func() time.Time
}

func NewUserService(users UserStore, sessions SessionStore, now func() time.Time) *UserService {
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, sessions: sessions, now: now}
}

// Authenticate resolves a bearer session token to its user.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, newError(ErrUnauthorized, "Authentication required")
	}
	session, err := s.sessions.GetByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrUnauthorized, "Invalid session")
	}
	if err != nil {
		return nil, err
	}
	if !session.ExpiresAt.After(s.now()) {
		return nil, newError(ErrUnauthorized, "Session expired")
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrUnauthorized, "Invalid session")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, role models.Role) ([]models.User, error) {
	if role != "" && !role.Valid() {
		return nil, newError(ErrValidation, "unknown role")
	}
	return s.users.List(ctx, role)
}

// SetRole changes another user's role. Admins cannot demote themselves.
func (s *UserService) SetRole(ctx context.Context, actorID, targetID primitive.ObjectID, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, newError(ErrValidation, "unknown role")
	}
	if actorID == targetID {
		return nil, newError(ErrForbidden, "You cannot change your own role")
	}
	if err := s.users.UpdateRole(ctx, targetID, role); err != nil {
		return nil, lookup(err, "User")
	}
	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, lookup(err, "User")
	}
	slog.Info("user role changed", "actor", actorID.Hex(), "target", targetID.Hex(), "role", role)
	return user, nil
}

// Delete removes another user and revokes their sessions.
func (s *UserService) Delete(ctx context.Context, actorID, targetID primitive.ObjectID) error {
	if actorID == targetID {
		return newError(ErrForbidden, "You cannot delete your own account")
	}
	if err := s.users.Delete(ctx, targetID); err != nil {
		return lookup(err, "User")
	}
	n, err := s.sessions.DeleteByUser(ctx, targetID)
	if err != nil {
		slog.Warn("failed to revoke sessions", "userId", targetID.Hex(), "error", err)
	}
	slog.Info("user deleted", "actor", actorID.Hex(), "target", targetID.Hex(), "sessions", n)
	return nil
}
