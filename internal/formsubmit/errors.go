package formsubmit

import "errors"

// Kind classifies a failed submission into the categories shown to visitors.
type Kind int

const (
	// KindNetwork covers transport failures and unreadable responses.
	KindNetwork Kind = iota + 1
	// KindRateLimited is returned when the form processor throttles us.
	KindRateLimited
	// KindServer is any non-2xx response other than 429.
	KindServer
)

const (
	MessageNetwork     = "Network connection failed. Please check your internet and try again."
	MessageRateLimited = "Too many requests. Please wait a moment and try again."
	MessageServer      = "Server error. Our team has been notified. Please try again in a few minutes."
)

// String returns the wire name used in API error bodies and metric labels.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Message returns the visitor-facing text for the kind.
func (k Kind) Message() string {
	switch k {
	case KindRateLimited:
		return MessageRateLimited
	case KindServer:
		return MessageServer
	default:
		return MessageNetwork
	}
}

// Error is returned by Client.Submit. Its Error() text is safe to show to visitors;
// the underlying cause stays available through Unwrap for logs.
type Error struct {
	Kind       Kind
	StatusCode int // zero when no response was received
	Err        error
}

func (e *Error) Error() string {
	return e.Kind.Message()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the package sentinels by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.StatusCode == 0 && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrNetwork     = &Error{Kind: KindNetwork}
	ErrRateLimited = &Error{Kind: KindRateLimited}
	ErrServer      = &Error{Kind: KindServer}

	// ErrEndpointRequired is returned by New when no endpoint id is configured.
	ErrEndpointRequired = errors.New("formsubmit: endpoint id is required")
)

// KindOf extracts the classification from err.
func KindOf(err error) (Kind, bool) {
	var subErr *Error
	if errors.As(err, &subErr) {
		return subErr.Kind, true
	}
	return 0, false
}

// ParseKind is the inverse of Kind.String. Unknown names return 0.
func ParseKind(name string) Kind {
	for _, k := range []Kind{KindNetwork, KindRateLimited, KindServer} {
		if k.String() == name {
			return k
		}
	}
	return 0
}
