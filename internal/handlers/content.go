package handlers

import (
	"net/http"
)

func (h *Handler) HandleChapters(w http.ResponseWriter, r *http.Request) {
	chapters, err := h.service.ListChapters(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"chapters": chapters})
}

func (h *Handler) HandleVerses(w http.ResponseWriter, r *http.Request) {
	verses, err := h.service.ListVerses(r.Context(), r.PathValue("chapter"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"verses": verses})
}

func (h *Handler) HandleVerse(w http.ResponseWriter, r *http.Request) {
	verse, err := h.service.GetVerse(r.Context(), r.PathValue("verse"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"verse": verse})
}
