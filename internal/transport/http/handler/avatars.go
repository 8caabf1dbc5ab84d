package handler

import (
	"io"
	"net/http"
	"os"

	"github.com/go-identity-api/internal/application/identity"
	"github.com/go-identity-api/internal/transport/http/middleware"
)

const maxAvatarUpload = 10 << 20 // 10 MiB

// AvatarHandler handles avatar upload endpoints.
type AvatarHandler struct {
	svc identity.Service
}

func NewAvatarHandler(svc identity.Service) *AvatarHandler { return &AvatarHandler{svc: svc} }

// Update receives the single avatar file field, spools it to a temp file and
// hands it to the pipeline. The pipeline owns the temp file from then on,
// including removal on failure.
func (h *AvatarHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := r.ParseMultipartForm(maxAvatarUpload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	f, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing avatar field")
		return
	}
	defer f.Close()

	tmp, err := os.CreateTemp("", "avatar-upload-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if _, err := io.Copy(tmp, f); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	avatarURL, err := h.svc.UpdateAvatar(r.Context(), a.AccountID, tmp.Name(), header.Filename)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AvatarEnvelope{AvatarURL: avatarURL})
}
