package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// CookieName carries the visitor's session id.
const CookieName = "nd_session"

// CookieOptions controls how the session cookie is issued.
type CookieOptions struct {
	Secure bool
	TTL    time.Duration
}

// IDFromRequest returns the session id from the cookie, or "" when absent or malformed.
func IDFromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return c.Value
}

// Ensure returns the request's session id, issuing a new cookie when needed.
func Ensure(w http.ResponseWriter, r *http.Request, opts CookieOptions) string {
	if id := IDFromRequest(r); id != "" {
		return id
	}
	id := uuid.NewString()
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if opts.TTL > 0 {
		cookie.MaxAge = int(opts.TTL.Seconds())
	}
	http.SetCookie(w, cookie)
	return id
}
