package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shrimpsizemoose/gitaguru/internal/app"
)

type identifyRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

func decodeIdentity(w http.ResponseWriter, r *http.Request) (*identifyRequest, bool) {
	var req identifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

func (h *Handler) HandleIdentify(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeIdentity(w, r)
	if !ok {
		return
	}

	user, created, err := h.service.IdentifyUser(r.Context(), req.Email, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]interface{}{"user": user})
}

func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.LookupUser(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		writeError(w, app.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// HandleProgress serves a learner their own progress; moderators may read
// anyone's.
func (h *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	if !h.service.IsModerator(r) {
		caller, err := h.service.RequestUserID(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if caller != userID {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	chapters, err := h.service.Progress(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"chapters": chapters})
}

func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeIdentity(w, r)
	if !ok {
		return
	}

	user, err := h.service.SignUp(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"user": user})
}

func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeIdentity(w, r)
	if !ok {
		return
	}

	session, user, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": session,
		"user":    user,
	})
}
