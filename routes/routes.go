package routes

import (
	"github.com/affendiariffin/TO-Bot/handlers"
	"github.com/affendiariffin/TO-Bot/middleware"
	"github.com/affendiariffin/TO-Bot/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	authHandler *handlers.AuthHandler,
	eventHandler *handlers.EventHandler,
	roundHandler *handlers.RoundHandler,
	gameHandler *handlers.GameHandler,
	ritualHandler *handlers.RitualHandler,
	standingsHandler *handlers.StandingsHandler,
	teamHandler *handlers.TeamHandler,
	dashboardHandler *handlers.DashboardHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Get("/auth/me", authHandler.Me)
	})

	router.Route("/events", func(r chi.Router) {
		r.Get("/", eventHandler.List)
		r.Get("/{eventID}", eventHandler.Get)
		r.Get("/{eventID}/standings", standingsHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Post("/{eventID}/registrations", eventHandler.Register)
			r.Post("/{eventID}/rituals/seat-roll", ritualHandler.OpenSeatRoll)

			r.Group(func(r chi.Router) {
				r.Use(auth.Authorize(models.RoleOrganizer))

				r.Post("/", eventHandler.Create)
				r.Post("/{eventID}/phase", eventHandler.AdvancePhase)
				r.Post("/{eventID}/rounds", roundHandler.Start)
				r.Delete("/{eventID}/participants/{participantID}", eventHandler.DropParticipant)
			})
		})
	})

	router.Route("/registrations", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Post("/{registrationID}/list", eventHandler.UploadList)
		r.With(auth.Authorize(models.RoleOrganizer)).
			Put("/{registrationID}/approval", eventHandler.ApproveList)
	})

	router.Route("/rounds", func(r chi.Router) {
		r.Get("/{roundID}", roundHandler.Get)
		r.Get("/{roundID}/games", gameHandler.ListByRound)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.Authorize(models.RoleOrganizer))

			r.Post("/{roundID}/acknowledge", roundHandler.Acknowledge)
			r.Post("/{roundID}/repair", roundHandler.Repair)
			r.Post("/{roundID}/complete", roundHandler.Complete)
		})
	})

	router.Route("/games", func(r chi.Router) {
		r.Get("/{gameID}", gameHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Post("/{gameID}/report", gameHandler.Report)
			r.Post("/{gameID}/confirm", gameHandler.Confirm)

			r.Group(func(r chi.Router) {
				r.Use(auth.Authorize(models.RoleOrganizer))

				r.Post("/{gameID}/override", gameHandler.Override)
				r.Get("/{gameID}/overrides", gameHandler.ListOverrides)
			})
		})
	})

	router.Route("/rituals", func(r chi.Router) {
		r.Get("/{sessionID}", ritualHandler.Get)
		r.With(auth.Authenticate).Post("/{sessionID}/roll", ritualHandler.Roll)
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/{teamID}", teamHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Post("/", teamHandler.Create)
			r.Post("/{teamID}/members", teamHandler.AddMember)
		})
	})

	router.With(auth.Authenticate, auth.Authorize(models.RoleOrganizer)).
		Get("/dashboard", dashboardHandler.Stats)

	router.Get("/ws/events/{eventID}", webSocketHandler.ServeWs)
}
