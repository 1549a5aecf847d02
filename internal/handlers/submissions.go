package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gitaguru/internal/app"
	"github.com/shrimpsizemoose/gitaguru/internal/models"
)

// multipart overhead on top of the two audio parts
const formSlack = 1 << 20

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	userID, err := h.service.RequestUserID(r)
	if err != nil {
		logger.Debug.Printf("Submit without identity: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	maxBytes := h.service.Config.Upload.MaxBytes
	r.Body = http.MaxBytesReader(w, r.Body, 2*maxBytes+formSlack)
	if err := r.ParseMultipartForm(formSlack); err != nil {
		logger.Debug.Printf("Failed to parse upload form: %v", err)
		http.Error(w, "Invalid upload form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := app.SubmitRequest{UserID: userID, VerseID: r.PathValue("verse")}
	if req.Recitation, err = formAudio(r, app.KindRecitation); err != nil {
		http.Error(w, "Failed to read recitation", http.StatusBadRequest)
		return
	}
	if req.Explanation, err = formAudio(r, app.KindExplanation); err != nil {
		http.Error(w, "Failed to read explanation", http.StatusBadRequest)
		return
	}

	submission, err := h.service.Submit(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"submission": submission})
}

func formAudio(r *http.Request, field string) (*app.AudioFile, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &app.AudioFile{Filename: header.Filename, Data: data}, nil
}

// HandleListSubmissions lets moderators filter freely. Everybody else only
// sees their own submissions.
func (h *Handler) HandleListSubmissions(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := app.SubmissionQuery{
		UserID:  params.Get("user_id"),
		VerseID: params.Get("verse_id"),
		Email:   params.Get("email"),
		Status:  params.Get("status"),
	}
	if raw := params.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		q.Limit = limit
	}

	if !h.service.IsModerator(r) {
		userID, err := h.service.RequestUserID(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		q.UserID, q.Email = userID, ""
	}

	submissions, err := h.service.ListSubmissions(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"submissions": submissions})
}

type reviewRequest struct {
	Status     models.SubmissionStatus `json:"status"`
	AdminNotes string                  `json:"admin_notes"`
}

func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	if !h.service.IsModerator(r) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	submission, err := h.service.ReviewSubmission(r.Context(), r.PathValue("submission"), req.Status, req.AdminNotes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"submission": submission})
}
