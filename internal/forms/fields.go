package forms

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/wolfman30/nominee-director-site/internal/formsubmit"
)

// Submission is visitor input with reserved keys removed.
type Submission struct {
	Fields map[string]any
	// Spam is set when the honeypot field came back filled in.
	Spam bool
}

// Split separates visitor fields from reserved "_" keys. Reserved keys are
// dropped; a non-empty _honey marks the submission as spam.
func Split(raw map[string]any) Submission {
	sub := Submission{Fields: make(map[string]any, len(raw))}
	for key, value := range raw {
		if formsubmit.IsControlKey(key) {
			if key == formsubmit.FieldHoney {
				if text, ok := formsubmit.Text(value); ok && text != "" {
					sub.Spam = true
				}
			}
			continue
		}
		sub.Fields[key] = value
	}
	return sub
}

// textFields flattens decoded JSON into the string map the form structs decode from.
func textFields(raw map[string]any) map[string]string {
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		if text, ok := formsubmit.Text(value); ok {
			out[key] = text
		}
	}
	return out
}

// bind fills dst (a struct of string fields with json tags) from fields.
func bind(fields map[string]string, dst any) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("forms: encode fields: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("forms: decode fields: %w", err)
	}
	return nil
}

// flatten turns a bound struct back into its non-empty fields.
func flatten(src any) (map[string]string, error) {
	data, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("forms: encode step: %w", err)
	}
	var all map[string]string
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("forms: decode step: %w", err)
	}
	out := make(map[string]string, len(all))
	for k, v := range all {
		if v != "" {
			out[k] = v
		}
	}
	return out, nil
}

// jsonKeys lists the json field names of the struct src points to.
func jsonKeys(src any) []string {
	t := reflect.TypeOf(src)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name := strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0]
		if name != "" && name != "-" {
			keys = append(keys, name)
		}
	}
	return keys
}
