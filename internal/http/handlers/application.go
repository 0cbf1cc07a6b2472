package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/nominee-director-site/internal/fallback"
	"github.com/wolfman30/nominee-director-site/internal/formsubmit"
	"github.com/wolfman30/nominee-director-site/internal/forms"
	"github.com/wolfman30/nominee-director-site/internal/notify"
	"github.com/wolfman30/nominee-director-site/internal/session"
)

// applicationView is what the multi-step form renders from.
type applicationView struct {
	NextStep     forms.Step        `json:"next_step,omitempty"`
	Completed    int               `json:"completed"`
	Steps        []forms.Step      `json:"steps"`
	Draft        map[string]string `json:"draft"`
	View         fallback.View     `json:"view"`
	ShowFallback bool              `json:"show_fallback"`
	Error        string            `json:"error,omitempty"`
	Kind         string            `json:"kind,omitempty"`
	Fallback     string            `json:"fallback,omitempty"`
}

func (h *FormsHandler) viewOf(state *session.State) applicationView {
	view := fallback.Render(state.Fallback, state.Failed())
	out := applicationView{
		NextStep:     state.Application.Next(),
		Completed:    state.Application.Completed,
		Steps:        forms.Steps,
		Draft:        state.Application.Draft,
		View:         view,
		ShowFallback: view.ShowButton(),
	}
	if out.Draft == nil {
		out.Draft = map[string]string{}
	}
	if state.Failed() {
		kind := formsubmit.ParseKind(state.LastError)
		out.Error = kind.Message()
		out.Kind = state.LastError
	}
	if view.ShowButton() {
		out.Fallback = h.applicationFallback.Link(state.Application.Draft["first_name"], state.Application.Draft["last_name"])
	}
	return out
}

func (h *FormsHandler) loadState(w http.ResponseWriter, r *http.Request) (*session.State, bool) {
	id := session.Ensure(w, r, h.cookie)
	state, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load session", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to load your application"})
		return nil, false
	}
	return state, true
}

func (h *FormsHandler) saveState(w http.ResponseWriter, r *http.Request, state *session.State) bool {
	state.UpdatedAt = time.Now().UTC()
	if err := h.sessions.Save(r.Context(), state); err != nil {
		h.logger.Error("failed to save session", "session_id", state.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to save your application"})
		return false
	}
	return true
}

// GetApplication handles GET /api/apply.
func (h *FormsHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	state, ok := h.loadState(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.viewOf(state))
}

// SaveStep handles POST /api/apply/steps/{step}.
func (h *FormsHandler) SaveStep(w http.ResponseWriter, r *http.Request) {
	step, err := forms.ParseStep(chi.URLParam(r, "step"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Unknown application step"})
		return
	}
	raw, err := decodeBody(w, r)
	if err != nil {
		h.logger.Warn("failed to decode application step", "step", step, "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	state, ok := h.loadState(w, r)
	if !ok {
		return
	}

	if err := state.Application.ApplyStep(step, raw); err != nil {
		switch {
		case writeValidationError(w, err):
			h.metrics.ObserveRejected(formApplication, "validation")
		case errors.Is(err, forms.ErrStepOutOfOrder):
			writeJSON(w, http.StatusConflict, errorResponse{Error: "Please complete the earlier steps first"})
		default:
			h.logger.Warn("failed to apply step", "step", step, "error", err)
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		}
		return
	}
	if !h.saveState(w, r, state) {
		return
	}
	writeJSON(w, http.StatusOK, h.viewOf(state))
}

// SubmitApplication handles POST /api/apply/submit.
func (h *FormsHandler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	state, ok := h.loadState(w, r)
	if !ok {
		return
	}
	payload, err := state.Application.Payload(h.autoResponse)
	if err != nil {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "Please complete every step before submitting"})
		return
	}

	who := notify.Submitter{Name: state.Application.FullName(), Email: state.Application.Draft["email"]}
	result, err := h.submit(r, formApplication, payload, who)
	if err != nil {
		kind, _ := formsubmit.KindOf(err)
		state.LastError = kind.String()
		if !h.saveState(w, r, state) {
			return
		}
		view := h.viewOf(state)
		writeJSON(w, statusForKind(kind), view)
		return
	}

	if result.Success {
		state = session.New(state.ID)
	}
	state.LastError = ""
	if !h.saveState(w, r, state) {
		return
	}
	h.logger.Info("application relayed", "success", result.Success)
	writeJSON(w, http.StatusOK, result)
}

// UseFallback handles POST /api/apply/fallback. It is only offered after a
// failed submit; once used the view stays fallback_used.
func (h *FormsHandler) UseFallback(w http.ResponseWriter, r *http.Request) {
	state, ok := h.loadState(w, r)
	if !ok {
		return
	}
	if !state.Failed() && !state.Fallback.Used {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "Nothing to fall back from"})
		return
	}

	link := h.applicationFallback.Fire(&state.Fallback, state.Application.Draft["first_name"], state.Application.Draft["last_name"])
	if !h.saveState(w, r, state) {
		return
	}
	h.metrics.ObserveFallback(formApplication)
	h.logger.Info("email fallback used", "form", formApplication)

	if r.URL.Query().Get("redirect") == "1" {
		http.Redirect(w, r, link, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mailto": link,
		"view":   fallback.Render(state.Fallback, state.Failed()),
	})
}
