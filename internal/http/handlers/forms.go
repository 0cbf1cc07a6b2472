package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/wolfman30/nominee-director-site/internal/fallback"
	"github.com/wolfman30/nominee-director-site/internal/formsubmit"
	"github.com/wolfman30/nominee-director-site/internal/forms"
	"github.com/wolfman30/nominee-director-site/internal/notify"
	"github.com/wolfman30/nominee-director-site/internal/observability/metrics"
	"github.com/wolfman30/nominee-director-site/internal/requests"
	"github.com/wolfman30/nominee-director-site/internal/session"
	"github.com/wolfman30/nominee-director-site/pkg/logging"
)

const (
	formContact     = "contact"
	formApplication = "application"

	maxBodyBytes = 64 << 10
	alertTimeout = 10 * time.Second
)

// Relay delivers an assembled payload to the form processor.
type Relay interface {
	Submit(ctx context.Context, payload formsubmit.Payload) (*formsubmit.Result, error)
}

// Alerter is told about failed relays.
type Alerter interface {
	SubmissionFailed(ctx context.Context, form string, who notify.Submitter, err error) error
}

// FormsConfig wires a FormsHandler.
type FormsConfig struct {
	Relay               Relay
	Sessions            session.Store
	Requests            *requests.Manager
	Alerter             Alerter
	Metrics             *metrics.FormMetrics
	ContactFallback     fallback.Trigger
	ApplicationFallback fallback.Trigger
	AutoResponse        string
	Cookie              session.CookieOptions
	Logger              *logging.Logger
}

// FormsHandler serves the contact and application form API.
type FormsHandler struct {
	relay               Relay
	sessions            session.Store
	requests            *requests.Manager
	alerter             Alerter
	metrics             *metrics.FormMetrics
	contactFallback     fallback.Trigger
	applicationFallback fallback.Trigger
	autoResponse        string
	cookie              session.CookieOptions
	logger              *logging.Logger
}

// NewFormsHandler creates the form API handler.
func NewFormsHandler(cfg FormsConfig) *FormsHandler {
	if cfg.Relay == nil {
		panic("handlers: relay required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = session.NewMemoryStore()
	}
	reqs := cfg.Requests
	if reqs == nil {
		reqs = requests.NewManager()
	}
	return &FormsHandler{
		relay:               cfg.Relay,
		sessions:            sessions,
		requests:            reqs,
		alerter:             cfg.Alerter,
		metrics:             cfg.Metrics,
		contactFallback:     cfg.ContactFallback,
		applicationFallback: cfg.ApplicationFallback,
		autoResponse:        cfg.AutoResponse,
		cookie:              cfg.Cookie,
		logger:              logger.Component("forms"),
	}
}

// errorResponse is the body for every non-2xx form API response.
type errorResponse struct {
	Error    string                 `json:"error"`
	Kind     string                 `json:"kind,omitempty"`
	Fields   forms.ValidationErrors `json:"fields,omitempty"`
	Fallback string                 `json:"fallback,omitempty"`
}

// submit relays the payload under the session's request registry so a
// pagehide beacon can abort it.
func (h *FormsHandler) submit(r *http.Request, form string, payload formsubmit.Payload, who notify.Submitter) (*formsubmit.Result, error) {
	ctx := r.Context()
	if id := session.IDFromRequest(r); id != "" {
		var done func()
		ctx, done = h.requests.Register(ctx, id)
		defer done()
	}

	start := time.Now()
	result, err := h.relay.Submit(ctx, payload)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		kind, _ := formsubmit.KindOf(err)
		h.metrics.ObserveSubmission(form, kind.String(), elapsed)
		h.logger.Warn("relay failed", "form", form, "kind", kind.String(), "cause", errors.Unwrap(err))
		h.alert(r.Context(), form, who, err)
		return nil, err
	}
	outcome := "success"
	if !result.Success {
		outcome = "remote_failure"
	}
	h.metrics.ObserveSubmission(form, outcome, elapsed)
	return result, nil
}

// alert runs in the background so the visitor gets their error (and fallback) straight away.
func (h *FormsHandler) alert(parent context.Context, form string, who notify.Submitter, err error) {
	if h.alerter == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), alertTimeout)
	go func() {
		defer cancel()
		if alertErr := h.alerter.SubmissionFailed(ctx, form, who, err); alertErr != nil {
			h.logger.Error("relay alert failed", "form", form, "error", alertErr)
		}
	}()
}

func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// statusForKind maps relay failures onto our own API's status codes.
func statusForKind(kind formsubmit.Kind) int {
	if kind == formsubmit.KindRateLimited {
		return http.StatusTooManyRequests
	}
	return http.StatusBadGateway
}

func writeValidationError(w http.ResponseWriter, err error) bool {
	var verrs forms.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
		Error:  "Please check the highlighted fields and try again.",
		Kind:   "validation",
		Fields: verrs,
	})
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
