package forms

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/nominee-director-site/internal/formsubmit"
)

func TestParseContact_Valid(t *testing.T) {
	c, err := ParseContact(map[string]any{
		"name":              "Test User",
		"email":             "t@example.com",
		"message":           "hi",
		"phone":             "",
		"preferred_contact": "email",
		"referral":          "google",
	})
	require.NoError(t, err)
	assert.False(t, c.Spam)
	assert.Equal(t, "Test User", c.Request.Name)

	p := c.Payload("Thanks")
	assert.Equal(t, "New Contact Request from Test User", p[formsubmit.FieldSubject])
	assert.Equal(t, "google", p["referral"])
	assert.NotContains(t, p, "phone")
	assert.Equal(t, "t@example.com", p[formsubmit.FieldReplyTo])
}

func TestParseContact_ValidationErrors(t *testing.T) {
	_, err := ParseContact(map[string]any{
		"name":         "T",
		"email":        "not-an-email",
		"phone":        "call me",
		"inquiry_type": "pizza",
	})
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	fields := map[string]string{}
	for _, e := range verrs {
		fields[e.Field] = e.Tag
	}
	assert.Equal(t, "min", fields["name"])
	assert.Equal(t, "email", fields["email"])
	assert.Equal(t, "required", fields["message"])
	assert.Equal(t, "phone", fields["phone"])
	assert.Equal(t, "oneof", fields["inquiry_type"])
	assert.Contains(t, err.Error(), "email (email)")
}

func TestParseContact_HoneypotSkipsValidation(t *testing.T) {
	c, err := ParseContact(map[string]any{"_honey": "http://spam.example"})
	require.NoError(t, err)
	assert.True(t, c.Spam)
}

func TestSplit_DropsReservedKeys(t *testing.T) {
	sub := Split(map[string]any{
		"name":     "A",
		"_cc":      "attacker@example.com",
		"_honey":   "",
		"_subject": "spoof",
	})
	assert.False(t, sub.Spam)
	assert.Equal(t, map[string]any{"name": "A"}, sub.Fields)
}

func TestContactSubject(t *testing.T) {
	assert.Equal(t, "New Contact Request from Jane Doe", ContactSubject("  Jane Doe "))
}
