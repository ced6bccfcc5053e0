package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger())
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})
		r.Get("/ready", apiHandler.ReadyHandler)

		// Analysis is anonymous.
		r.Post("/analyze", apiHandler.AnalyzeHandler)
		r.Post("/diagnose", apiHandler.DiagnoseHandler)
		r.Post("/symptoms/improve", apiHandler.ImproveHandler)

		r.Group(func(r chi.Router) {
			r.Use(Identity(jwtSecret))

			r.Post("/reports", apiHandler.SaveReportHandler)
			r.Get("/reports", apiHandler.ListReportsHandler)
		})
	})

	return r
}

// requestLogger writes access lines through the default slog handler. chi's
// middleware.Logger prints to stdout, which the MCP stdio transport owns.
func requestLogger() func(http.Handler) http.Handler {
	return middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo),
		NoColor: true,
	})
}
