package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/gitaguru/internal/app"
)

type Handler struct {
	service *app.Service
}

func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

// Routes registers the API and /metrics on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, instrument(h.requireHeaders(fn)))
	}

	handle("GET /api/v1/chapters", h.HandleChapters)
	handle("GET /api/v1/chapters/{chapter}/verses", h.HandleVerses)
	handle("GET /api/v1/verses/{verse}", h.HandleVerse)

	handle("POST /api/v1/users", h.HandleIdentify)
	handle("GET /api/v1/users", h.HandleLookup)
	handle("GET /api/v1/users/{user}/progress", h.HandleProgress)
	handle("POST /api/v1/auth/signup", h.HandleSignUp)
	handle("POST /api/v1/auth/signin", h.HandleSignIn)

	handle("POST /api/v1/verses/{verse}/submissions", h.HandleSubmit)
	handle("GET /api/v1/submissions", h.HandleListSubmissions)
	handle("PATCH /api/v1/submissions/{submission}", h.HandleReview)

	mux.Handle("/metrics", promhttp.Handler())
}

func (h *Handler) requireHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.service.ValidateHeaders(r.Header) {
			http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}
