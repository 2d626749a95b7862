package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *App, sessions *SessionHandlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/videos", func(r chi.Router) {
			r.Post("/", app.UploadVideoHandler)
			r.Get("/", app.ListVideosHandler)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", app.GetVideoHandler)
				r.Delete("/", app.DeleteVideoHandler)
				r.Get("/stream", app.StreamVideoHandler)
				r.Post("/analyze", app.AnalyzeVideoHandler)
				r.Get("/report", app.GetReportHandler)
			})
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessions.StartSessionHandler)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sessions.StatusHandler)
				r.Delete("/", sessions.DeleteSessionHandler)
				r.Post("/frames", sessions.FrameHandler)
				r.Get("/advice", sessions.AdviceHandler)
				r.Get("/vitals", sessions.VitalsHandler)
				r.Get("/stream", sessions.StreamHandler)
				r.Post("/mode", sessions.AnalysisModeHandler)
				r.Post("/reset", sessions.ResetHandler)
			})
		})
	})

	return r
}
