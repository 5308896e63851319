package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tagwise-console/internal/config"
	"tagwise-console/internal/guard"
	"tagwise-console/internal/handler"
	"tagwise-console/internal/middleware"
	"tagwise-console/internal/model"
)

type Handlers struct {
	Session   *handler.SessionHandler
	Auth      *handler.AuthHandler
	Admin     *handler.AdminHandler
	Dataset   *handler.DatasetHandler
	Annotator *handler.AnnotatorHandler
	Task      *handler.TaskHandler
}

func New(cfg *config.Config, sessionMiddleware *middleware.SessionMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM, cfg.TrustedProxies...)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Session.Health)

	r.Group(func(web chi.Router) {
		web.Use(middleware.Timeout(cfg.RequestTimeout))
		web.Use(sessionMiddleware.Handler)

		web.Get("/", h.Session.Home)
		web.Get("/unauthorized", h.Session.Unauthorized)
		web.Post("/notifications/dismiss", h.Session.DismissNotification)
		web.Post("/preferences/sidebar", h.Session.ToggleSidebar)

		web.Get("/login", h.Auth.LoginPage)
		web.Post("/login", h.Auth.Login)
		web.Post("/logout", h.Auth.Logout)
		web.Get("/signup", h.Auth.SignupPage)
		web.Post("/signup", h.Auth.Signup)
		web.Get("/verify", h.Auth.VerifyPage)
		web.Post("/verify", h.Auth.Verify)
		web.Post("/verify/resend", h.Auth.ResendCode)

		web.Route("/api/v1", func(api chi.Router) {
			api.Use(middleware.CORS(cfg.CORSOrigins))
			api.Get("/session", h.Session.Snapshot)
		})

		web.Route("/admin", func(admin chi.Router) {
			admin.Use(guard.Require(model.RoleAdmin))

			admin.Get("/", h.Admin.Dashboard)
			admin.Get("/options", h.Admin.OptionsPage)
			admin.Post("/options", h.Admin.UpdateOptions)

			admin.Get("/datasets", h.Dataset.List)
			admin.Get("/datasets/new", h.Dataset.NewForm)
			admin.Post("/datasets/new", h.Dataset.Create)
			admin.Get("/datasets/{id}", h.Dataset.Detail)
			admin.Get("/datasets/{id}/assign", h.Dataset.AssignForm)
			admin.Post("/datasets/{id}/assign", h.Dataset.Assign)
			admin.Post("/datasets/{id}/annotators/{annotatorID}/remove", h.Dataset.RemoveAnnotator)

			admin.Get("/annotators", h.Annotator.List)
			admin.Post("/annotators", h.Annotator.Add)
			admin.Post("/annotators/{id}/validate", h.Annotator.Validate)
		})

		web.Route("/annotator", func(annotator chi.Router) {
			annotator.Use(guard.Require(model.RoleAnnotator))

			annotator.Get("/", h.Task.MyTasks)
			annotator.Get("/tasks/{id}", h.Task.Show)
			annotator.Post("/tasks/{id}", h.Task.Submit)
		})
	})

	return r
}
