package session

import (
	"context"
	"errors"
	"time"

	"github.com/wolfman30/nominee-director-site/internal/fallback"
	"github.com/wolfman30/nominee-director-site/internal/forms"
)

// ErrMissingID is returned when a store is asked for an empty session id.
var ErrMissingID = errors.New("session: id is required")

// State is everything remembered about one visitor between requests.
type State struct {
	ID          string            `json:"id"`
	Application forms.Application `json:"application"`
	Fallback    fallback.State    `json:"fallback"`
	// LastError holds the kind of the most recent failed relay, cleared on success.
	LastError string    `json:"last_error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns a fresh state for id.
func New(id string) *State {
	return &State{ID: id, Application: forms.Application{Draft: map[string]string{}}}
}

// Failed reports whether the last relay attempt failed.
func (s *State) Failed() bool {
	return s.LastError != ""
}

// Store persists session state. Get returns a fresh state for unknown ids.
type Store interface {
	Get(ctx context.Context, id string) (*State, error)
	Save(ctx context.Context, state *State) error
	Delete(ctx context.Context, id string) error
}
