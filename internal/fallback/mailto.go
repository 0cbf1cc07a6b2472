// Package fallback builds the mailto: link offered when a form relay fails.
package fallback

import (
	"net/url"
	"strings"
)

// View is what the form UI should render after a submission attempt.
type View string

const (
	ViewIdle         View = "idle"
	ViewFailed       View = "failed"
	ViewFallbackUsed View = "fallback_used"
)

// State is owned by the visitor's session.
type State struct {
	Used bool   `json:"used"`
	Link string `json:"link,omitempty"`
}

// Trigger builds mailto: links addressed to the business inbox.
type Trigger struct {
	Address       string
	SubjectPrefix string
}

// Link returns mailto:<address>?subject=<encoded subject>.
func (t Trigger) Link(firstName, lastName string) string {
	return "mailto:" + t.Address + "?subject=" + encodeComponent(t.Subject(firstName, lastName))
}

// Subject interpolates the submitter's name into the prefix.
func (t Trigger) Subject(firstName, lastName string) string {
	name := strings.TrimSpace(strings.Join([]string{strings.TrimSpace(firstName), strings.TrimSpace(lastName)}, " "))
	if name == "" {
		return t.SubjectPrefix
	}
	if t.SubjectPrefix == "" {
		return name
	}
	return t.SubjectPrefix + " - " + name
}

// Fire marks the fallback as used and returns the link to open.
func (t Trigger) Fire(state *State, firstName, lastName string) string {
	link := t.Link(firstName, lastName)
	if state != nil {
		state.Used = true
		state.Link = link
	}
	return link
}

// Render picks the display state. Once the fallback has been used the button
// is never offered again, even if a later attempt fails.
func Render(state State, failed bool) View {
	switch {
	case state.Used:
		return ViewFallbackUsed
	case failed:
		return ViewFailed
	default:
		return ViewIdle
	}
}

// ShowButton reports whether the UI should offer the mailto button.
func (v View) ShowButton() bool {
	return v == ViewFailed
}

// encodeComponent escapes like a browser's encodeURIComponent: spaces become
// %20 rather than +, which several mail clients show literally.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
