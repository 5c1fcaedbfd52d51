package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

func NewRouter(app *App, limiter *rate.Limiter) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if limiter != nil {
		r.Use(rateLimit(limiter))
	}

	r.Get("/api/health", HealthHandler)

	r.Post("/api/analyze/audio", app.AnalyzeAudioHandler)
	r.Post("/api/analyze/video", app.AnalyzeVideoHandler)
	r.Post("/api/analyze/combined/analyze", app.CombinedAnalyzeHandler)
	r.Post("/api/analyze/combined/{kind}", app.CombinedUploadHandler)

	r.Get("/api/reports", app.ListReportsHandler)
	r.Get("/api/reports/{id}", app.GetReportHandler)

	return r
}

// rateLimit sheds load once the analysis endpoints are saturated; analysis
// is expensive enough that queueing requests only makes things worse.
func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeFailure(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
