package routes

import (
	"net/http"

	"github.com/Dosada05/fitarena-system/docs"
	"github.com/Dosada05/fitarena-system/handlers"
	"github.com/Dosada05/fitarena-system/metrics"
	"github.com/Dosada05/fitarena-system/middleware"
	"github.com/Dosada05/fitarena-system/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	competitionHandler *handlers.CompetitionHandler,
	invitationHandler *handlers.InvitationHandler,
	webSocketHandler *handlers.WebSocketHandler,
	adminHandler *handlers.AdminHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(metrics.Instrument)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticator(jwtSecret)

	// Публичные маршруты
	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Method(http.MethodGet, "/metrics", metrics.Handler())
	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(docs.SwaggerJSON)
	})
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Защищённые маршруты
	router.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Route("/users", func(r chi.Router) {
			r.Get("/{id}", userHandler.GetByID)
			r.Patch("/{id}", userHandler.UpdateByID)
			r.Post("/{id}/avatar", userHandler.UploadAvatar)
		})

		r.Get("/fair-play", userHandler.FairPlayStatus)
		r.Post("/fair-play", userHandler.AcknowledgeFairPlay)

		r.Route("/competitions", func(r chi.Router) {
			r.Get("/", competitionHandler.ListHandler)
			r.Post("/", competitionHandler.CreateHandler)

			r.Route("/{competitionID}", func(r chi.Router) {
				r.Get("/", competitionHandler.GetByIDHandler)
				r.Delete("/", competitionHandler.DeleteHandler)
				r.Post("/finalize", competitionHandler.FinalizeHandler)
				r.Post("/cover", competitionHandler.UploadCoverHandler)
				r.Post("/invitations", invitationHandler.InviteHandler)
				r.Post("/scores", competitionHandler.SubmitScoreHandler)
				r.Get("/leaderboard", competitionHandler.GetLeaderboardHandler)
				r.Get("/payouts", competitionHandler.GetPayoutsHandler)
			})
		})

		r.Route("/invitations", func(r chi.Router) {
			r.Get("/", invitationHandler.InboxHandler)
			r.Post("/{invitationID}/accept", invitationHandler.AcceptHandler)
			r.Post("/{invitationID}/join-without-pool", invitationHandler.JoinWithoutPoolHandler)
			r.Post("/{invitationID}/decline", invitationHandler.DeclineHandler)
		})

		r.Get("/ws/competitions/{competitionID}", webSocketHandler.ServeWs)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Authorize(models.RoleAdmin))
			r.Post("/maintenance/roll-forward", adminHandler.RollForwardHandler)
			r.Post("/maintenance/sweep-drafts", adminHandler.SweepDraftsHandler)
		})
	})
}
