package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/nominee-director-site/internal/fallback"
	"github.com/wolfman30/nominee-director-site/internal/formsubmit"
	"github.com/wolfman30/nominee-director-site/internal/notify"
	"github.com/wolfman30/nominee-director-site/internal/requests"
	"github.com/wolfman30/nominee-director-site/internal/session"
)

const businessEmail = "info@nomineedirector.co.uk"

type fakeRelay struct {
	mu       sync.Mutex
	payloads []formsubmit.Payload
	submit   func(ctx context.Context, payload formsubmit.Payload) (*formsubmit.Result, error)
}

func (f *fakeRelay) Submit(ctx context.Context, payload formsubmit.Payload) (*formsubmit.Result, error) {
	f.mu.Lock()
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()
	if f.submit != nil {
		return f.submit(ctx, payload)
	}
	return &formsubmit.Result{Success: true, Message: "The form was submitted successfully."}, nil
}

func (f *fakeRelay) calls() []formsubmit.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]formsubmit.Payload(nil), f.payloads...)
}

func failWith(kind formsubmit.Kind) func(context.Context, formsubmit.Payload) (*formsubmit.Result, error) {
	return func(context.Context, formsubmit.Payload) (*formsubmit.Result, error) {
		return nil, &formsubmit.Error{Kind: kind, StatusCode: 500}
	}
}

type recordingAlerter struct {
	ch chan string
}

func (a *recordingAlerter) SubmissionFailed(_ context.Context, form string, _ notify.Submitter, _ error) error {
	a.ch <- form
	return nil
}

type testEnv struct {
	handler  *FormsHandler
	router   http.Handler
	relay    *fakeRelay
	sessions *session.MemoryStore
	requests *requests.Manager
	cookie   *http.Cookie
}

func newTestEnv(t *testing.T, relay *fakeRelay, alerter Alerter) *testEnv {
	t.Helper()
	env := &testEnv{
		relay:    relay,
		sessions: session.NewMemoryStore(),
		requests: requests.NewManager(),
	}
	env.handler = NewFormsHandler(FormsConfig{
		Relay:               relay,
		Sessions:            env.sessions,
		Requests:            env.requests,
		Alerter:             alerter,
		ContactFallback:     fallback.Trigger{Address: businessEmail, SubjectPrefix: "Contact Request"},
		ApplicationFallback: fallback.Trigger{Address: businessEmail, SubjectPrefix: "Nominee Director Application"},
		AutoResponse:        "Thanks, we will be in touch.",
	})
	r := chi.NewRouter()
	r.Post("/api/contact", env.handler.SubmitContact)
	r.Get("/api/apply", env.handler.GetApplication)
	r.Post("/api/apply/steps/{step}", env.handler.SaveStep)
	r.Post("/api/apply/submit", env.handler.SubmitApplication)
	r.Post("/api/apply/fallback", env.handler.UseFallback)
	r.Post("/api/session/pagehide", env.handler.Pagehide)
	env.router = r
	return env
}

// do sends a request carrying the session cookie from earlier responses.
func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			e.cookie = c
		}
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestNewFormsHandler_PanicsWithoutRelay(t *testing.T) {
	assert.Panics(t, func() { NewFormsHandler(FormsConfig{}) })
}

func TestHealthCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusBadGateway, statusForKind(formsubmit.KindNetwork))
	assert.Equal(t, http.StatusTooManyRequests, statusForKind(formsubmit.KindRateLimited))
	assert.Equal(t, http.StatusBadGateway, statusForKind(formsubmit.KindServer))
}

func TestPagehide_AbortsInFlightSubmission(t *testing.T) {
	started := make(chan struct{})
	relay := &fakeRelay{submit: func(ctx context.Context, _ formsubmit.Payload) (*formsubmit.Result, error) {
		close(started)
		<-ctx.Done()
		return nil, &formsubmit.Error{Kind: formsubmit.KindNetwork, Err: ctx.Err()}
	}}
	env := newTestEnv(t, relay, nil)
	env.do(t, http.MethodGet, "/api/apply", "")
	require.NotNil(t, env.cookie)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- env.do(t, http.MethodPost, "/api/contact", `{"name":"Jane Doe","email":"jane@example.com","message":"Hello"}`)
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("relay never started")
	}

	rec := env.do(t, http.MethodPost, "/api/session/pagehide", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	select {
	case rec := <-done:
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "network", decode(t, rec)["kind"])
	case <-time.After(2 * time.Second):
		t.Fatal("submission was not aborted")
	}
	assert.Equal(t, 0, env.requests.Sessions())
}

func TestPagehide_WithoutSession(t *testing.T) {
	env := newTestEnv(t, &fakeRelay{}, nil)
	rec := env.do(t, http.MethodPost, "/api/session/pagehide", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
