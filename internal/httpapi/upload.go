package httpapi

import (
	"errors"
	"net/http"

	"github.com/gearup/storefront/internal/imagehost"
)

type uploadRequest struct {
	Image string `json:"image"`
}

// POST /api/upload
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Image == "" {
		respondError(w, http.StatusBadRequest, "No image provided")
		return
	}

	link, err := h.Images.Upload(r.Context(), req.Image)
	if err != nil {
		var rejected *imagehost.RejectedError
		switch {
		case errors.As(err, &rejected):
			respondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":   "Failed to upload image",
				"details": rejected.Details,
			})
		case errors.Is(err, imagehost.ErrEmptyImage):
			respondError(w, http.StatusBadRequest, "No image provided")
		default:
			h.Logger.Printf("upload image: %v", err)
			respondError(w, http.StatusInternalServerError, "Error uploading image")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"url": link})
}
