// internal/server/errors.go
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/AzlanEh/EducationPlus-sub000/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errorStatus = []struct {
	kind   error
	status int
	code   string
}{
	{service.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{service.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
	{service.ErrConflict, http.StatusConflict, "CONFLICT"},
	{service.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{service.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{service.ErrValidation, http.StatusBadRequest, "VALIDATION"},
	{service.ErrProvider, http.StatusBadGateway, "PROVIDER_ERROR"},
	{service.ErrUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE"},
}

func classify(err error) (int, string) {
	for _, e := range errorStatus {
		if errors.Is(err, e.kind) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL"
}

// respondError writes the typed error's public message. Untyped errors are
// logged and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	status, code := classify(err)
	msg := service.PublicMessage(err, http.StatusText(status))
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"route", c.FullPath(),
			"requestId", c.GetString(requestIDKey),
			"error", err,
		)
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: msg, Code: code})
}

func respondBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: describeBindError(err), Code: "VALIDATION"})
}

func describeBindError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
