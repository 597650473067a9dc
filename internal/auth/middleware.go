package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/gdg-garage/con-registration-api/internal/models"
)

type contextKey string

const (
	UserIDKey  contextKey = "user_id"
	StationKey contextKey = "reg_station"
)

// Station returns the registration station of an API-key request.
func Station(ctx context.Context) (int, bool) {
	n, ok := ctx.Value(StationKey).(int)
	return n, ok
}

// AuthMiddleware accepts a station API key in X-API-KEY or the auth_token
// cookie. Cookies past half their lifetime are renewed.
func (h *AuthHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiKey := r.Header.Get("X-API-KEY"); apiKey != "" && h.db != nil {
			var key models.APIKey
			if err := h.db.WithContext(r.Context()).Where("key = ?", apiKey).First(&key).Error; err == nil {
				now := time.Now()
				if key.Expired(now) {
					http.Error(w, "Unauthorized: API Key expired", http.StatusUnauthorized)
					return
				}
				if err := h.db.Model(&key).Update("last_used_at", now).Error; err != nil {
					slog.Warn("Failed to stamp API key", "key_id", key.ID, "error", err)
				}
				ctx := context.WithValue(r.Context(), UserIDKey, key.UserID)
				if key.Station != 0 {
					ctx = context.WithValue(ctx, StationKey, key.Station)
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}

		cookie, err := r.Cookie(CookieName)
		if err != nil {
			if errors.Is(err, http.ErrNoCookie) {
				http.Error(w, "Unauthorized: No token found", http.StatusUnauthorized)
				return
			}
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		userID, exp, err := h.ParseToken(cookie.Value)
		if err != nil {
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}

		if !exp.IsZero() && time.Until(exp) < TokenDuration/2 {
			if token, err := h.GenerateToken(userID); err == nil {
				c := h.cookie(token)
				http.SetCookie(w, &c)
			}
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Middleware runs AuthMiddleware in front of a huma operation.
func (h *AuthHandler) Middleware(ctx huma.Context, next func(huma.Context)) {
	r, w := humachi.Unwrap(ctx)
	h.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next(huma.WithContext(ctx, r.Context()))
	})).ServeHTTP(w, r)
}
