package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mkells/robot-orchestra/internal/api/handlers"
	"github.com/mkells/robot-orchestra/internal/api/middleware"
	"github.com/mkells/robot-orchestra/internal/service"
	"github.com/mkells/robot-orchestra/internal/websocket"
)

func NewRouter(services *service.Services, tokens *service.TokenService, hub *websocket.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	matchHandler := handlers.NewMatchHandler(services.Match, services.Round, tokens)
	wsHandler := handlers.NewWebSocketHandler(hub, tokens)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/matches", func(r chi.Router) {
			r.Post("/", matchHandler.Create)
			r.Get("/history", matchHandler.History)
			r.Post("/join/{inviteCode}", matchHandler.Join)
			r.Get("/{idOrCode}", matchHandler.Get)
			r.Post("/{id}/responses", matchHandler.SubmitResponse)
			r.Post("/{id}/votes", matchHandler.SubmitVote)
		})

		r.Get("/ws", wsHandler.Handle)
	})

	return r
}
