package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gitaguru/internal/app"
	"github.com/shrimpsizemoose/gitaguru/internal/auth"
	"github.com/shrimpsizemoose/gitaguru/internal/metrics"
	"github.com/shrimpsizemoose/gitaguru/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	var verr *app.ValidationError
	switch {
	case errors.As(err, &verr):
		status, message = http.StatusBadRequest, verr.Error()
	case errors.Is(err, store.ErrNoAudio):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, app.ErrNotFound):
		status, message = http.StatusNotFound, "not found"
	case errors.Is(err, auth.ErrEmailTaken):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrSessionNotFound):
		status, message = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, auth.ErrDisabled):
		status, message = http.StatusNotImplemented, err.Error()
	default:
		logger.Error.Printf("Request failed: %v", err)
	}

	writeJSON(w, status, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument records the request duration labelled with the route pattern.
func instrument(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			path := r.Pattern
			if path == "" {
				path = r.URL.Path
			}
			metrics.APIRequestDuration.WithLabelValues(
				path,
				r.Method,
				strconv.Itoa(rec.status),
			).Observe(time.Since(start).Seconds())
		}()
		next(rec, r)
	}
}
