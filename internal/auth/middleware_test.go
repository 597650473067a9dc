package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gdg-garage/con-registration-api/internal/config"
	"github.com/gdg-garage/con-registration-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

func serve(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAuthMiddleware_SlidingSession(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	handler := NewAuthHandler(cfg, nil, nil)

	signed := func(expiresIn time.Duration) string {
		claims := jwt.MapClaims{
			"user_id": uint(1),
			"exp":     time.Now().Add(expiresIn).Unix(),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, _ := token.SignedString([]byte(cfg.JWTSecret))
		return tokenString
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, _ := r.Context().Value(UserIDKey).(uint); id != 1 {
			t.Errorf("expected user 1 on the context, got %d", id)
		}
		w.WriteHeader(http.StatusOK)
	})

	t.Run("TokenRenewed", func(t *testing.T) {
		tokenString := signed(11 * time.Hour)
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: tokenString})
		rr := serve(t, handler.AuthMiddleware(next), req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status OK, got %v", rr.Code)
		}
		found := false
		for _, c := range rr.Result().Cookies() {
			if c.Name == CookieName {
				found = true
				if c.Value == tokenString {
					t.Errorf("expected new token value, but got the old one")
				}
			}
		}
		if !found {
			t.Errorf("expected new auth_token cookie to be set")
		}
	})

	t.Run("TokenNotRenewed", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: signed(13 * time.Hour)})
		rr := serve(t, handler.AuthMiddleware(next), req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status OK, got %v", rr.Code)
		}
		for _, c := range rr.Result().Cookies() {
			if c.Name == CookieName {
				t.Errorf("did not expect a new auth_token cookie to be set")
			}
		}
	})

	t.Run("Expired", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: signed(-time.Hour)})
		if rr := serve(t, handler.AuthMiddleware(next), req); rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %v", rr.Code)
		}
	})

	t.Run("NoCookie", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		if rr := serve(t, handler.AuthMiddleware(next), req); rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %v", rr.Code)
		}
	})
}

func TestAuthMiddleware_APIKey(t *testing.T) {
	db := newTestDB(t)
	user := models.User{DiscordID: "7", Username: "station-7"}
	db.Create(&user)
	past := time.Now().Add(-time.Hour)
	db.Create(&models.APIKey{UserID: user.ID, Key: "live-key", Name: "Desk 7", Station: 7})
	db.Create(&models.APIKey{UserID: user.ID, Key: "old-key", Name: "Old desk", ExpiresAt: &past})

	handler := NewAuthHandler(&config.Config{JWTSecret: "test-secret"}, db, nil)
	var station int
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		station, _ = Station(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("Valid", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-API-KEY", "live-key")
		if rr := serve(t, handler.AuthMiddleware(next), req); rr.Code != http.StatusOK {
			t.Fatalf("expected status OK, got %v", rr.Code)
		}
		if station != 7 {
			t.Errorf("expected station 7, got %d", station)
		}
		var key models.APIKey
		db.Where("key = ?", "live-key").First(&key)
		if key.LastUsedAt == nil {
			t.Error("expected last_used_at to be stamped")
		}
	})

	t.Run("Expired", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-API-KEY", "old-key")
		if rr := serve(t, handler.AuthMiddleware(next), req); rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %v", rr.Code)
		}
	})

	t.Run("UnknownFallsBackToCookie", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-API-KEY", "nope")
		if rr := serve(t, handler.AuthMiddleware(next), req); rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %v", rr.Code)
		}
	})
}
