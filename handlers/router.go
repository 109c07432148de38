package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

type RouterConfig struct {
	APIToken    string
	RateLimiter *RateLimiter
	Agent       *AgentHandler
	Customers   *CustomerHandler
	Health      *HealthHandler
}

// NewRouter wires the middleware chain: request id, logging and CORS for
// every route; bearer auth for the API; per-user rate limiting for chat.
func NewRouter(cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestID, Logging, CORS)

	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("OPTIONS")

	if cfg.Health != nil {
		cfg.Health.RegisterRoutes(router)
	}

	api := router.NewRoute().Subrouter()
	api.Use(BearerAuth(cfg.APIToken))
	if cfg.Customers != nil {
		cfg.Customers.RegisterRoutes(api)
	}

	if cfg.Agent != nil {
		chat := api.NewRoute().Subrouter()
		if cfg.RateLimiter != nil {
			chat.Use(cfg.RateLimiter.Middleware)
		}
		cfg.Agent.RegisterRoutes(chat)
	}

	return router
}
