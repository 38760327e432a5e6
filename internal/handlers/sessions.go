package handlers

import (
	"net/http"
	"sort"

	"github.com/cabcoat/cabcoat/internal/session"
)

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		sessions := h.sessionStore.GetAll()
		ids := make([]string, 0, len(sessions))
		for id := range sessions {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			return sessions[ids[i]].Created.Before(sessions[ids[j]].Created)
		})
		sessionList := make([]session.Snapshot, 0, len(ids))
		for _, id := range ids {
			sessionList = append(sessionList, sessions[id].Controller.Snapshot())
		}
		h.writeJSON(w, sessionList)
	case "POST":
		h.handleUpload(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		h.writeJSON(w, ws.Controller.Snapshot())
	case "PUT":
		h.handleReplace(w, r, ws)
	case "DELETE":
		ws.Controller.Reset()
		h.sessionStore.Delete(ws.Controller.ID())
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
