package formsubmit

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Control keys understood by FormSubmit.
const (
	FieldSubject      = "_subject"
	FieldTemplate     = "_template"
	FieldCaptcha      = "_captcha"
	FieldAutoResponse = "_autoresponse"
	FieldHoney        = "_honey"
	FieldReplyTo      = "_replyto"

	FieldEmail = "email"

	templateTable = "table"
	captchaOff    = "false"
)

// Payload is the JSON object posted to FormSubmit.
type Payload map[string]string

// Control carries the per-form values injected next to the visitor's fields.
type Control struct {
	Subject      string
	AutoResponse string
}

// IsControlKey reports whether key is reserved for the form processor.
func IsControlKey(key string) bool {
	return strings.HasPrefix(key, "_")
}

// Assemble builds the outgoing payload. Fields that are nil or the empty string
// are left out entirely; control fields are written last so they always win.
// _honey is the only key that may carry an empty value; an empty subject,
// auto-response or reply-to is omitted.
func Assemble(fields map[string]any, ctl Control) Payload {
	p := make(Payload, len(fields)+6)
	for key, value := range fields {
		if text, ok := Text(value); ok {
			p[key] = text
		}
	}

	replyTo := p[FieldEmail]
	p.setOrDrop(FieldSubject, ctl.Subject)
	p[FieldTemplate] = templateTable
	p[FieldCaptcha] = captchaOff
	p.setOrDrop(FieldAutoResponse, ctl.AutoResponse)
	p[FieldHoney] = ""
	p.setOrDrop(FieldReplyTo, replyTo)
	return p
}

// setOrDrop writes a control value, removing the key instead when the value
// is empty so a visitor-supplied key of the same name never survives.
func (p Payload) setOrDrop(key, value string) {
	if value == "" {
		delete(p, key)
		return
	}
	p[key] = value
}

// AssembleStrings is Assemble for callers that already hold plain strings.
func AssembleStrings(fields map[string]string, ctl Control) Payload {
	generic := make(map[string]any, len(fields))
	for k, v := range fields {
		generic[k] = v
	}
	return Assemble(generic, ctl)
}

// Text renders a decoded JSON value as form text. ok is false for nil and
// the empty string.
func Text(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, t != ""
	case *string:
		if t == nil || *t == "" {
			return "", false
		}
		return *t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case json.Number:
		return t.String(), t.String() != ""
	case fmt.Stringer:
		s := t.String()
		return s, s != ""
	default:
		b, err := json.Marshal(t)
		if err != nil || string(b) == "null" {
			return "", false
		}
		return string(b), true
	}
}
