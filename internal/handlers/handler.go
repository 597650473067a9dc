package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/con-registration-api/internal/auth"
	"github.com/gdg-garage/con-registration-api/internal/models"
	"github.com/gdg-garage/con-registration-api/internal/session"
)

// sessionHandler is embedded by every handler that works through a unit of
// work. Sessions are attributed to the signed-in operator.
type sessionHandler struct {
	store       *session.Store
	authHandler *auth.AuthHandler
}

func (h *sessionHandler) begin(ctx context.Context, cookie string) (*session.Session, error) {
	user, err := h.authHandler.User(ctx, cookie)
	if err != nil {
		return nil, err
	}
	return h.store.Session(user.AuditName()), nil
}

func (h *sessionHandler) beginAdmin(ctx context.Context, cookie string) (*session.Session, error) {
	user, err := h.authHandler.RequireAdmin(ctx, cookie)
	if err != nil {
		return nil, err
	}
	return h.store.Session(user.AuditName()), nil
}

// storeError maps session and validation errors onto HTTP errors.
func storeError(err error) error {
	var verr *models.ValidationError
	var se huma.StatusError
	switch {
	case errors.As(err, &se):
		return err
	case errors.Is(err, session.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, session.ErrMultipleFound):
		return huma.Error409Conflict(err.Error())
	case errors.As(err, &verr):
		return huma.Error422UnprocessableEntity(err.Error())
	}
	slog.Error("Request failed", "error", err)
	return huma.Error500InternalServerError("Internal error")
}

type MessageResponse struct {
	Body struct {
		Message string `json:"message"`
		Warning string `json:"warning,omitempty"`
	}
}

func message(msg string) *MessageResponse {
	res := &MessageResponse{}
	res.Body.Message = msg
	return res
}

// outcome turns a user-facing failure string into a 409; "" means success.
func outcome(failure, success string) (*MessageResponse, error) {
	if failure != "" {
		return nil, huma.Error409Conflict(failure)
	}
	return message(success), nil
}
