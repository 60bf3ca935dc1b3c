package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/bluesumk/mjjf/internal/cache"
	"github.com/bluesumk/mjjf/internal/service"
	"github.com/bluesumk/mjjf/internal/transport/rest/handler"
	"github.com/bluesumk/mjjf/internal/transport/rest/middleware"
)

// Container holds all dependencies for the router.
type Container struct {
	AuthService    *service.AuthService
	SessionService *service.SessionService
	InviteService  *service.InviteService
	Leaderboard    cache.LeaderboardCache
}

// NewRouter creates the API router with all endpoints.
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	sessionHandler := handler.NewSessionHandler(c.SessionService)
	inviteHandler := handler.NewInviteHandler(c.InviteService)
	rankingHandler := handler.NewRankingHandler(c.SessionService, c.Leaderboard)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/invites/resolve", inviteHandler.Resolve).Methods("GET", "OPTIONS")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Authenticated routes
	authed := v1.NewRoute().Subrouter()
	authed.Use(authMW.RequireIdentity)

	authed.HandleFunc("/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")
	authed.HandleFunc("/sessions", sessionHandler.List).Methods("GET", "OPTIONS")
	authed.HandleFunc("/sessions/{sid}", sessionHandler.Get).Methods("GET", "OPTIONS")
	authed.HandleFunc("/sessions/{sid}", sessionHandler.Delete).Methods("DELETE", "OPTIONS")
	authed.HandleFunc("/sessions/{sid}/join", sessionHandler.Join).Methods("POST", "OPTIONS")
	authed.HandleFunc("/sessions/{sid}/rounds", sessionHandler.SubmitRound).Methods("POST", "OPTIONS")
	authed.HandleFunc("/sessions/{sid}/finalize", sessionHandler.Finalize).Methods("POST", "OPTIONS")
	authed.HandleFunc("/sessions/{sid}/ranking", rankingHandler.SessionRanking).Methods("GET", "OPTIONS")
	authed.HandleFunc("/rankings", rankingHandler.AggregateRanking).Methods("GET", "OPTIONS")
	authed.HandleFunc("/invites/{sid}/asset", inviteHandler.Asset).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
