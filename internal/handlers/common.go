// Package handlers exposes design sessions over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cabcoat/cabcoat/internal/catalog"
	"github.com/cabcoat/cabcoat/internal/comparator"
	"github.com/cabcoat/cabcoat/internal/providers"
	"github.com/cabcoat/cabcoat/internal/publish"
	"github.com/cabcoat/cabcoat/internal/quota"
	"github.com/cabcoat/cabcoat/internal/session"
	"github.com/cabcoat/cabcoat/internal/storage"
	"github.com/google/uuid"
)

// maxUpload bounds uploaded photos.
const maxUpload = 10 * 1024 * 1024

// Counters receives gate events. metrics.Recorder satisfies it.
type Counters interface {
	UnlockRecorded()
	RedirectRecorded()
}

// Config wires the handler's collaborators. Catalog defaults to the built-in catalog;
// Counters and Publisher are optional.
type Config struct {
	Analyzer    providers.Analyzer
	Synthesizer providers.Synthesizer
	Gate        *quota.Gate
	Catalog     *catalog.Catalog
	Options     []session.Option
	Counters    Counters
	Publisher   publish.Publisher
}

// Workspace is one browser session: the controller plus its comparator view.
type Workspace struct {
	Controller *session.Controller
	Created    time.Time

	mu   sync.Mutex
	view *comparator.View
}

// View syncs the comparator with the displayed result and returns its state.
func (ws *Workspace) View(fn func(v *comparator.View)) comparator.ViewState {
	_, seq, _ := ws.Controller.Result()

	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.view.Observe(seq)
	if fn != nil {
		fn(ws.view)
	}
	return ws.view.State()
}

func (ws *Workspace) resetView() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.view.Reset()
	ws.view.Release()
}

type Handler struct {
	sessionStore *storage.SessionStore[*Workspace]
	cfg          Config
	now          func() time.Time
}

func New(cfg Config) *Handler {
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Default()
	}
	return &Handler{
		sessionStore: storage.New[*Workspace](),
		cfg:          cfg,
		now:          time.Now,
	}
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/sessions", h.HandleSessions)
	mux.HandleFunc("/api/sessions/{id}", h.HandleSessionDetail)
	mux.HandleFunc("/api/sessions/{id}/selection", h.HandleSelection)
	mux.HandleFunc("/api/sessions/{id}/generate", h.HandleGenerate)
	mux.HandleFunc("/api/sessions/{id}/image/{kind}", h.HandleImage)
	mux.HandleFunc("/api/sessions/{id}/view", h.HandleView)
	mux.HandleFunc("/api/sessions/{id}/export", h.HandleExport)
	mux.HandleFunc("/api/catalog", h.HandleCatalog)
	mux.HandleFunc("/api/quota", h.HandleQuota)
	mux.HandleFunc("/api/unlock", h.HandleUnlock)
}

func (h *Handler) newWorkspace() *Workspace {
	id := uuid.NewString()
	opts := append([]session.Option{session.WithID(id)}, h.cfg.Options...)
	ws := &Workspace{
		Controller: session.New(h.cfg.Analyzer, h.cfg.Synthesizer, h.cfg.Gate, opts...),
		Created:    h.now(),
		view:       comparator.NewView(),
	}
	h.sessionStore.Set(id, ws)
	return ws
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

type sessionErrorResponse struct {
	Error          string            `json:"error"`
	UnlockRequired bool              `json:"unlock_required,omitempty"`
	Session        *session.Snapshot `json:"session,omitempty"`
}

// writeSessionError maps a controller error onto a status code and includes the session view.
func (h *Handler) writeSessionError(w http.ResponseWriter, ws *Workspace, err error) {
	resp := sessionErrorResponse{Error: session.Describe(err)}
	if ws != nil {
		snap := ws.Controller.Snapshot()
		resp.Session = &snap
	}

	var (
		validation *session.ValidationError
		notKitchen *session.NotAKitchenError
		service    *session.ServiceError
	)
	code := http.StatusInternalServerError
	switch {
	case errors.As(err, &validation):
		code = http.StatusBadRequest
	case errors.As(err, &notKitchen):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrUnlockRequired):
		code = http.StatusForbidden
		resp.UnlockRequired = true
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrNoImage), errors.Is(err, session.ErrSessionReset):
		code = http.StatusConflict
	case errors.As(err, &service):
		code = http.StatusBadGateway
	}

	slog.Warn("Session request failed", "status", code, "err", err)
	h.writeJSONStatus(w, code, resp)
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, r *http.Request) (*Workspace, bool) {
	ws, exists := h.sessionStore.Get(r.PathValue("id"))
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return ws, true
}
