package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/cabcoat/cabcoat/internal/comparator"
	"github.com/cabcoat/cabcoat/internal/export"
	"github.com/cabcoat/cabcoat/internal/history"
	"github.com/cabcoat/cabcoat/internal/models"
	"github.com/cabcoat/cabcoat/internal/quota"
	"github.com/cabcoat/cabcoat/internal/session"
)

// selectionRequest changes only the fields that are present.
type selectionRequest struct {
	Color       *string `json:"color"` // catalog or suggested colour name; "" clears
	Suggestion  *int    `json:"suggestion"`
	CustomColor *string `json:"custom_color"`
	Hardware    *string `json:"hardware"`
	Sheen       *string `json:"sheen"`
	FreeText    *string `json:"free_text"`
}

type generateRequest struct {
	Color           *string `json:"color"`
	Suggestion      *int    `json:"suggestion"`
	RestoreOriginal bool    `json:"restore_original"`
	Hardware        *string `json:"hardware"`
}

type viewRequest struct {
	Action string  `json:"action"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type viewResponse struct {
	comparator.ViewState
	Dragging bool   `json:"dragging"`
	Showing  string `json:"showing"` // "original", "result" or "none"
	Caption  string `json:"caption,omitempty"`
}

// decodeOptional decodes a JSON body, treating an empty body as the zero value.
func decodeOptional(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// resolveColor finds a colour by name in the catalog, then in the session's suggestions.
func (h *Handler) resolveColor(ws *Workspace, name string) (models.Color, bool) {
	if c, ok := h.cfg.Catalog.ColorByName(name); ok {
		return c, true
	}
	for _, c := range ws.Controller.Snapshot().Suggestions {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return c, true
		}
	}
	return models.Color{}, false
}

func (h *Handler) suggestion(ws *Workspace, i int) (models.Color, bool) {
	suggestions := ws.Controller.Snapshot().Suggestions
	if i < 0 || i >= len(suggestions) {
		return models.Color{}, false
	}
	return suggestions[i], true
}

func (h *Handler) HandleSelection(w http.ResponseWriter, r *http.Request) {
	if r.Method != "PUT" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	// Resolve everything before mutating so a bad field leaves the selection untouched.
	var (
		color    *models.Color
		hardware *models.HardwareStyle
		sheen    string
	)
	switch {
	case req.Suggestion != nil:
		c, found := h.suggestion(ws, *req.Suggestion)
		if !found {
			h.writeError(w, fmt.Sprintf("Unknown suggestion %d", *req.Suggestion), http.StatusBadRequest)
			return
		}
		color = &c
	case req.Color != nil && strings.TrimSpace(*req.Color) != "":
		c, found := h.resolveColor(ws, *req.Color)
		if !found {
			h.writeError(w, "Unknown color: "+*req.Color, http.StatusBadRequest)
			return
		}
		color = &c
	}
	if req.Hardware != nil {
		hw, found := h.cfg.Catalog.HardwareByID(*req.Hardware)
		if !found {
			h.writeError(w, "Unknown hardware: "+*req.Hardware, http.StatusBadRequest)
			return
		}
		hardware = &hw
	}
	if req.Sheen != nil {
		s, found := h.cfg.Catalog.Sheen(*req.Sheen)
		if !found {
			h.writeError(w, "Unknown sheen: "+*req.Sheen, http.StatusBadRequest)
			return
		}
		sheen = s
	}

	c := ws.Controller
	switch {
	case color != nil:
		c.SelectColor(color)
	case req.Color != nil:
		c.SelectColor(nil)
	}
	if req.CustomColor != nil {
		c.SetCustomColor(*req.CustomColor)
	}
	if hardware != nil {
		c.SelectHardware(*hardware)
	}
	if req.Sheen != nil {
		c.SetSheen(sheen)
	}
	if req.FreeText != nil {
		c.SetFreeText(*req.FreeText)
	}

	h.writeJSON(w, c.Snapshot())
}

func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	var req generateRequest
	if err := decodeOptional(r, &req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	opts := session.GenerateOptions{RestoreOriginal: req.RestoreOriginal}
	if !req.RestoreOriginal {
		switch {
		case req.Suggestion != nil:
			c, found := h.suggestion(ws, *req.Suggestion)
			if !found {
				h.writeError(w, fmt.Sprintf("Unknown suggestion %d", *req.Suggestion), http.StatusBadRequest)
				return
			}
			opts.Color = &c
		case req.Color != nil:
			c, found := h.resolveColor(ws, *req.Color)
			if !found {
				h.writeError(w, "Unknown color: "+*req.Color, http.StatusBadRequest)
				return
			}
			opts.Color = &c
		}
	}
	if req.Hardware != nil {
		hw, found := h.cfg.Catalog.HardwareByID(*req.Hardware)
		if !found {
			h.writeError(w, "Unknown hardware: "+*req.Hardware, http.StatusBadRequest)
			return
		}
		opts.Hardware = &hw
	}

	if err := ws.Controller.Generate(r.Context(), opts); err != nil {
		if errors.Is(err, session.ErrUnlockRequired) && h.cfg.Counters != nil {
			h.cfg.Counters.RedirectRecorded()
		}
		h.writeSessionError(w, ws, err)
		return
	}

	h.writeJSON(w, ws.Controller.Snapshot())
}

func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	var (
		img   models.Image
		found bool
	)
	switch r.PathValue("kind") {
	case "original":
		img, found = ws.Controller.Original()
	case "result":
		img, _, found = ws.Controller.Result()
	default:
		h.writeError(w, "Unknown image kind", http.StatusNotFound)
		return
	}
	if !found {
		h.writeError(w, "Image not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", img.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(img.Data); err != nil {
		slog.Error("Unable to write image", "err", err)
	}
}

func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	var apply func(v *comparator.View)
	switch r.Method {
	case "GET":
	case "POST":
		var req viewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		var err error
		apply, err = viewAction(req)
		if err != nil {
			h.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var dragging bool
	state := ws.View(func(v *comparator.View) {
		if apply != nil {
			apply(v)
		}
		dragging = v.Dragging()
	})

	resp := viewResponse{ViewState: state, Dragging: dragging, Showing: "none"}
	_, _, hasResult := ws.Controller.Result()
	_, hasOriginal := ws.Controller.Original()
	switch {
	case hasResult && !state.RevealOriginal:
		resp.Showing = "result"
		if c := ws.Controller.ResultColor(); c != nil {
			resp.Caption = c.Name
		}
	case hasOriginal:
		resp.Showing = "original"
	}
	h.writeJSON(w, resp)
}

func viewAction(req viewRequest) (func(v *comparator.View), error) {
	switch req.Action {
	case "zoom_in":
		return (*comparator.View).ZoomIn, nil
	case "zoom_out":
		return (*comparator.View).ZoomOut, nil
	case "reset":
		return (*comparator.View).Reset, nil
	case "press":
		return (*comparator.View).Press, nil
	case "release":
		return (*comparator.View).Release, nil
	case "pointer_down":
		return func(v *comparator.View) { v.PointerDown(req.X, req.Y) }, nil
	case "pointer_move":
		return func(v *comparator.View) { v.PointerMove(req.X, req.Y) }, nil
	case "pointer_up":
		return (*comparator.View).PointerUp, nil
	default:
		return nil, fmt.Errorf("unknown view action %q", req.Action)
	}
}

func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	img, _, found := ws.Controller.Result()
	if !found {
		h.writeError(w, "No generated design to export", http.StatusConflict)
		return
	}

	now := h.now()
	art, err := export.Export(img, ws.Controller.ResultColor(), now)
	if err != nil {
		h.writeError(w, "Failed to export design: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("publish") == "true" {
		if h.cfg.Publisher == nil {
			h.writeError(w, "Publishing is not configured", http.StatusNotImplemented)
			return
		}
		loc, err := h.publishExport(r, ws, art)
		if err != nil {
			h.writeError(w, "Failed to publish export: "+err.Error(), http.StatusBadGateway)
			return
		}
		w.Header().Set("X-Export-Location", loc)
	}

	w.Header().Set("Content-Type", art.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, art.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	if _, err := w.Write(art.Data); err != nil {
		slog.Error("Unable to write export", "err", err)
	}
}

// publishExport stores the artifact and its YAML summary.
func (h *Handler) publishExport(r *http.Request, ws *Workspace, art *export.Artifact) (string, error) {
	loc, err := h.cfg.Publisher.Publish(r.Context(), art)
	if err != nil {
		return "", err
	}

	sel, instruction, _ := ws.Controller.ResultDetails()
	summary := history.NewSummary(art.Filename, ws.Controller.ID(), sel, instruction, h.now())
	data, err := summary.Marshal()
	if err != nil {
		return "", err
	}
	sidecar := &export.Artifact{
		Filename: history.SummaryPath(art.Filename),
		MimeType: "application/yaml",
		Data:     data,
	}
	if _, err := h.cfg.Publisher.Publish(r.Context(), sidecar); err != nil {
		slog.Warn("Failed to publish export summary", "session_id", ws.Controller.ID(), "err", err)
	}
	return loc, nil
}

func (h *Handler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, map[string]any{
		"colors":   h.cfg.Catalog.Colors(),
		"hardware": h.cfg.Catalog.Hardware(),
		"sheens":   h.cfg.Catalog.Sheens(),
	})
}

func (h *Handler) HandleQuota(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, h.cfg.Gate.Status())
}

func (h *Handler) HandleUnlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.cfg.Gate.Unlock(r.Context(), req.Email); err != nil {
		if errors.Is(err, quota.ErrInvalidEmail) {
			h.writeError(w, "Please enter a valid email address", http.StatusBadRequest)
			return
		}
		h.writeError(w, "Failed to unlock: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if h.cfg.Counters != nil {
		h.cfg.Counters.UnlockRecorded()
	}
	h.writeJSON(w, h.cfg.Gate.Status())
}
