package httpx

import (
	"net/http"

	"log/slog"

	"designforge/internal/app"
	"designforge/internal/figma"
	"designforge/internal/store"
	"designforge/internal/ws"
	"designforge/pkg/auth"
	"designforge/pkg/metrics"
)

// NewRouter wires up all HTTP routes, middleware, and handlers
func NewRouter(cfg app.Config, logger *slog.Logger, hub *ws.Hub, db *store.Postgres, cache *store.Cache, fg *figma.Client) http.Handler {
	mw := NewMiddleware(cfg)

	j := auth.New(cfg.JWTSecret)
	authAPI := &AuthAPI{Cfg: cfg, DB: db, Figma: fg, JWT: j}
	catalog := &CatalogAPI{DB: db, Cache: cache, Figma: fg, Log: logger}

	mux := http.NewServeMux()

	// Health / readiness / metrics
	mux.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/readyz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint for the collaboration layer
	mux.Handle("/ws", http.HandlerFunc(hub.ServeWS))

	// Auth endpoints
	mux.Handle("POST /api/auth/login", http.HandlerFunc(authAPI.Login))
	mux.Handle("GET /api/auth/figma", http.HandlerFunc(authAPI.FigmaAuthURL))
	mux.Handle("POST /api/auth/figma/callback", http.HandlerFunc(authAPI.FigmaCallback))
	mux.Handle("GET /api/auth/me", mw.Auth(http.HandlerFunc(authAPI.Me)))

	// Catalog endpoints (JWT-protected, cache-aside over the design API)
	mux.Handle("GET /api/teams/{teamId}", mw.Auth(http.HandlerFunc(catalog.GetTeam)))
	mux.Handle("GET /api/teams/{teamId}/projects", mw.Auth(http.HandlerFunc(catalog.ListTeamProjects)))
	mux.Handle("GET /api/teams/{teamId}/files", mw.Auth(http.HandlerFunc(catalog.ListTeamFiles)))
	mux.Handle("GET /api/projects/{projectId}/files", mw.Auth(http.HandlerFunc(catalog.ListProjectFiles)))

	// CORS + rate limit applied globally
	return mw.Wrap(mux)
}
