package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RequestID, middlewares.RequestLogger, middleware.Recoverer)
	root.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{app.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	auth := middlewares.Authenticated(app.TokenSecret)
	optionalAuth := middlewares.OptionalAuth(app.TokenSecret)

	api := chi.NewRouter()

	api.Post("/users/register", Register(app))
	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))
	api.With(auth).Get("/dashboard", Dashboard(app))

	api.Route("/forms", func(r chi.Router) {
		r.With(auth).Post("/", CreateForm(app))
		r.With(auth).Get("/", ListForms(app))

		r.Get("/{id}", GetForm(app))
		r.With(auth).Put("/{id}", UpdateForm(app))
		r.With(auth).Delete("/{id}", DeleteForm(app))

		r.With(optionalAuth).Post("/{id}/responses", SubmitResponse(app))
		r.Get("/{id}/responses", ListResponses(app))
		r.Get("/{id}/results", FormResults(app))
	})

	api.Route("/responses", func(r chi.Router) {
		r.Use(auth)

		r.Put("/{id}", UpdateResponse(app))
		r.Delete("/{id}", DeleteResponse(app))
	})

	return api
}
