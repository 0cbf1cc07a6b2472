package handlers

import (
	"net/http"

	"github.com/wolfman30/nominee-director-site/internal/formsubmit"
	"github.com/wolfman30/nominee-director-site/internal/forms"
	"github.com/wolfman30/nominee-director-site/internal/notify"
)

// spamAck is what a bot sees when it trips the honeypot.
var spamAck = formsubmit.Result{Success: true, Message: "The form was submitted successfully."}

// SubmitContact handles POST /api/contact.
func (h *FormsHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(w, r)
	if err != nil {
		h.logger.Warn("failed to decode contact request", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	contact, err := forms.ParseContact(raw)
	if err != nil {
		if writeValidationError(w, err) {
			h.metrics.ObserveRejected(formContact, "validation")
			return
		}
		h.logger.Error("failed to parse contact request", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	if contact.Spam {
		h.metrics.ObserveRejected(formContact, "spam")
		h.logger.Info("honeypot tripped", "form", formContact)
		writeJSON(w, http.StatusOK, spamAck)
		return
	}

	who := notify.Submitter{Name: contact.Request.Name, Email: contact.Request.Email}
	result, err := h.submit(r, formContact, contact.Payload(h.autoResponse), who)
	if err != nil {
		kind, _ := formsubmit.KindOf(err)
		writeJSON(w, statusForKind(kind), errorResponse{
			Error:    kind.Message(),
			Kind:     kind.String(),
			Fallback: h.contactFallback.Link(contact.Request.Name, ""),
		})
		return
	}

	h.logger.Info("contact request relayed", "success", result.Success, "inquiry_type", contact.Request.InquiryType)
	writeJSON(w, http.StatusOK, result)
}
