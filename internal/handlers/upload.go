package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cabcoat/cabcoat/internal/models"
	"github.com/cabcoat/cabcoat/internal/session"
)

// readUpload reads the multipart "file" field as a photo.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (models.Image, bool) {
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return models.Image{}, false
	}
	defer file.Close()

	// Limit file size to 10MB
	fileData, err := io.ReadAll(io.LimitReader(file, maxUpload))
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return models.Image{}, false
	}
	if len(fileData) >= maxUpload {
		h.writeError(w, "File too large (max 10MB)", http.StatusBadRequest)
		return models.Image{}, false
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(fileData)
	}
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	slog.Info("Photo uploaded", "filename", header.Filename, "mime_type", mimeType, "bytes", len(fileData))
	return models.Image{Data: fileData, MimeType: mimeType}, true
}

// handleUpload starts a new session from an uploaded photo.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	img, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	ws := h.newWorkspace()
	if err := ws.Controller.Upload(r.Context(), img); err != nil {
		var validation *session.ValidationError
		if errors.As(err, &validation) {
			h.sessionStore.Delete(ws.Controller.ID())
			h.writeSessionError(w, nil, err)
			return
		}
		h.writeSessionError(w, ws, err)
		return
	}

	h.writeJSONStatus(w, http.StatusCreated, ws.Controller.Snapshot())
}

// handleReplace uploads a new photo into an existing session, discarding its prior state.
func (h *Handler) handleReplace(w http.ResponseWriter, r *http.Request, ws *Workspace) {
	img, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	if err := ws.Controller.Upload(r.Context(), img); err != nil {
		h.writeSessionError(w, ws, err)
		return
	}
	ws.resetView()
	h.writeJSON(w, ws.Controller.Snapshot())
}
