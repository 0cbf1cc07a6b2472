package forms

import (
	"strings"

	"github.com/wolfman30/nominee-director-site/internal/formsubmit"
)

const contactSubjectPrefix = "New Contact Request from "

// ContactRequest is the request-info form on the contact page.
type ContactRequest struct {
	Name             string `json:"name" validate:"required,min=2,max=100"`
	Email            string `json:"email" validate:"required,email,max=255"`
	Message          string `json:"message" validate:"required,max=5000"`
	Phone            string `json:"phone,omitempty" validate:"omitempty,phone"`
	InquiryType      string `json:"inquiry_type,omitempty" validate:"omitempty,oneof=general nominee_director nominee_shareholder registered_office other"`
	PreferredContact string `json:"preferred_contact,omitempty" validate:"omitempty,oneof=email phone"`
}

// Contact is a validated contact submission ready for relay.
type Contact struct {
	Request ContactRequest
	Submission
}

// ParseContact validates raw JSON input. Extra fields ride along untouched.
func ParseContact(raw map[string]any) (*Contact, error) {
	sub := Split(raw)
	var req ContactRequest
	if err := bind(textFields(sub.Fields), &req); err != nil {
		return nil, err
	}
	if sub.Spam {
		return &Contact{Request: req, Submission: sub}, nil
	}
	if err := Validate(&req); err != nil {
		return nil, err
	}
	return &Contact{Request: req, Submission: sub}, nil
}

// ContactSubject is the email subject for a contact enquiry.
func ContactSubject(name string) string {
	return contactSubjectPrefix + strings.TrimSpace(name)
}

// Payload assembles the relay payload.
func (c *Contact) Payload(autoResponse string) formsubmit.Payload {
	return formsubmit.Assemble(c.Fields, formsubmit.Control{
		Subject:      ContactSubject(c.Request.Name),
		AutoResponse: autoResponse,
	})
}
