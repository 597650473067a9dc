package handlers

import (
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/gdg-garage/con-registration-api/internal/auth"
	"github.com/gdg-garage/con-registration-api/internal/config"
	"github.com/gdg-garage/con-registration-api/internal/metrics"
	"github.com/gdg-garage/con-registration-api/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

type Handlers struct {
	Auth      *auth.AuthHandler
	Attendees *AttendeeHandler
	Groups    *GroupHandler
	Jobs      *JobHandler
	History   *HistoryHandler
	APIKeys   *APIKeyHandler
}

func NewHandlers(db *gorm.DB, store *session.Store, authHandler *auth.AuthHandler) *Handlers {
	return &Handlers{
		Auth:      authHandler,
		Attendees: NewAttendeeHandler(store, authHandler),
		Groups:    NewGroupHandler(store, authHandler),
		Jobs:      NewJobHandler(store, authHandler),
		History:   NewHistoryHandler(store, authHandler),
		APIKeys:   NewAPIKeyHandler(db, authHandler),
	}
}

// cors allows the configured frontend to call the API with credentials.
func cors(origin string) func(http.Handler) http.Handler {
	origin = strings.TrimSuffix(origin, "/")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Origin") == origin {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-KEY")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RegisterRoutes(r *chi.Mux, cfg *config.Config, h *Handlers) huma.API {
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.EnableCORS {
		r.Use(cors(cfg.FrontendURL))
	}

	humaConfig := huma.DefaultConfig("Convention Registration API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: auth.CookieName,
		},
		"stationKey": {
			Type: "apiKey",
			In:   "header",
			Name: "X-API-KEY",
		},
	}
	api := humachi.New(r, humaConfig)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())

	huma.Get(api, "/auth/discord/login", h.Auth.HandleLogin)
	huma.Get(api, "/auth/discord/callback", h.Auth.HandleCallback)

	protected := func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}, {"stationKey": {}}}
		o.Middlewares = append(o.Middlewares, h.Auth.Middleware)
	}

	huma.Get(api, "/me", h.Auth.HandleMe, protected)

	huma.Post(api, "/attendees", h.Attendees.HandleRegister, protected)
	huma.Get(api, "/attendees/search", h.Attendees.HandleSearch, protected)
	huma.Get(api, "/attendees/{id}", h.Attendees.HandleGet, protected)
	huma.Delete(api, "/attendees/{id}", h.Attendees.HandleDelete, protected)
	huma.Post(api, "/attendees/{id}/badge", h.Attendees.HandleChangeBadge, protected)
	huma.Get(api, "/attendees/{id}/jobs", h.Attendees.HandlePossibleJobs, protected)

	huma.Post(api, "/groups", h.Groups.HandleCreate, protected)
	huma.Get(api, "/groups/{id}", h.Groups.HandleGet, protected)
	huma.Post(api, "/groups/{id}/badges", h.Groups.HandleAssignBadges, protected)
	huma.Post(api, "/groups/{id}/match", h.Groups.HandleMatch, protected)
	huma.Delete(api, "/groups/{id}/members/{attendee_id}", h.Groups.HandleRemoveMember, protected)

	huma.Post(api, "/jobs", h.Jobs.HandleCreate, protected)
	huma.Post(api, "/jobs/{id}/assign", h.Jobs.HandleAssign, protected)

	huma.Get(api, "/history/{id}", h.History.HandleHistory, protected)
	huma.Get(api, "/history/{id}/emails", h.History.HandleEmails, protected)

	huma.Post(api, "/api-keys", h.APIKeys.HandleCreate, protected)
	huma.Get(api, "/api-keys", h.APIKeys.HandleList, protected)
	huma.Delete(api, "/api-keys/{id}", h.APIKeys.HandleDelete, protected)

	return api
}
