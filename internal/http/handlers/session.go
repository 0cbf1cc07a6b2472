package handlers

import (
	"net/http"

	"github.com/wolfman30/nominee-director-site/internal/session"
)

// Pagehide handles POST /api/session/pagehide, sent as a beacon when the
// visitor leaves. Any relay still running for the session is aborted.
func (h *FormsHandler) Pagehide(w http.ResponseWriter, r *http.Request) {
	if id := session.IDFromRequest(r); id != "" {
		if n := h.requests.Release(id); n > 0 {
			h.logger.Info("aborted in-flight submissions", "session_id", id, "count", n)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
