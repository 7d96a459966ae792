// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/weekwise/backend/internal/api/handlers"
	"github.com/weekwise/backend/internal/api/middleware"
	"github.com/weekwise/backend/internal/planner"
	"github.com/weekwise/backend/internal/storage"
	"github.com/weekwise/backend/internal/websocket"
)

// Deps bundles everything the routes need.
type Deps struct {
	DB           *storage.DB
	Hub          *websocket.Hub
	FeedRepo     *storage.FeedRepository
	GoalRepo     *storage.GoalRepository
	RuleRepo     *storage.RuleRepository
	DecisionRepo *storage.DecisionRepository
	RunRepo      *storage.RunRepository
	Service      *planner.Service
	Scheduler    *planner.Scheduler
	StaticDir    string
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	api := r.PathPrefix("/api").Subrouter()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(d.DB)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(d.DB, d.Hub, d.RunRepo)).Methods("GET")

	// WebSocket endpoint
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(d.Hub)).Methods("GET")

	// Feed endpoints
	api.HandleFunc("/feeds", handlers.ListFeeds(d.FeedRepo)).Methods("GET")
	api.HandleFunc("/feeds", handlers.CreateFeed(d.FeedRepo, d.Scheduler)).Methods("POST")
	api.HandleFunc("/feeds/{id}", handlers.GetFeed(d.FeedRepo)).Methods("GET")
	api.HandleFunc("/feeds/{id}", handlers.UpdateFeed(d.FeedRepo, d.Scheduler)).Methods("PUT")
	api.HandleFunc("/feeds/{id}", handlers.DeleteFeed(d.FeedRepo, d.Scheduler)).Methods("DELETE")
	api.HandleFunc("/feeds/{id}/refresh", handlers.RefreshFeed(d.Service)).Methods("POST")

	// Goal endpoints
	api.HandleFunc("/goals", handlers.ListGoals(d.GoalRepo)).Methods("GET")
	api.HandleFunc("/goals", handlers.CreateGoal(d.GoalRepo)).Methods("POST")
	api.HandleFunc("/goals/{id}", handlers.GetGoal(d.GoalRepo)).Methods("GET")
	api.HandleFunc("/goals/{id}", handlers.UpdateGoal(d.GoalRepo)).Methods("PUT")
	api.HandleFunc("/goals/{id}", handlers.DeleteGoal(d.GoalRepo)).Methods("DELETE")

	// Coverage rule endpoints
	api.HandleFunc("/rules", handlers.ListRules(d.RuleRepo)).Methods("GET")
	api.HandleFunc("/rules", handlers.CreateRule(d.RuleRepo)).Methods("POST")
	api.HandleFunc("/rules/{id}", handlers.GetRule(d.RuleRepo)).Methods("GET")
	api.HandleFunc("/rules/{id}", handlers.UpdateRule(d.RuleRepo)).Methods("PUT")
	api.HandleFunc("/rules/{id}", handlers.DeleteRule(d.RuleRepo)).Methods("DELETE")

	// Analysis endpoints
	api.HandleFunc("/analysis/run", handlers.RunAnalysis(d.Service)).Methods("POST")
	api.HandleFunc("/analysis/latest", handlers.LatestAnalysis(d.Service, d.RunRepo)).Methods("GET")

	// Decision endpoints
	api.HandleFunc("/decisions", handlers.DecideConflict(d.Service)).Methods("POST")
	api.HandleFunc("/coverage-links", handlers.ListCoverageLinks(d.DecisionRepo)).Methods("GET")
	api.HandleFunc("/coverage-links", handlers.AcceptCoverage(d.Service)).Methods("POST")
	api.HandleFunc("/coverage-links/{id}", handlers.DeleteCoverageLink(d.DecisionRepo)).Methods("DELETE")

	// Serve static frontend files
	if d.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(d.StaticDir)))
	}

	return r
}
