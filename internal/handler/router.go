package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	callHandler "github.com/vishnusiva/callmate/backend/internal/handler/call"
	middlewarePkg "github.com/vishnusiva/callmate/backend/internal/middleware"
)

// NewRouter wires HTTP routes to the call service.
func NewRouter(callSvc callHandler.CallService) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	h := callHandler.New(callSvc)
	h.RegisterRoutes(r)

	return r
}
