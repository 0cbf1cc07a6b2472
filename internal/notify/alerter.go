package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/nominee-director-site/internal/formsubmit"
	"github.com/wolfman30/nominee-director-site/pkg/logging"
)

// Submitter identifies who was trying to reach us.
type Submitter struct {
	Name  string
	Email string
}

// Alerter emails the operations inbox when the form processor is failing.
// Alerts for the same form are throttled to one per cooldown window.
type Alerter struct {
	email      EmailSender
	recipients []string
	siteName   string
	cooldown   time.Duration
	logger     *logging.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time
	now      func() time.Time
}

// AlerterConfig configures NewAlerter.
type AlerterConfig struct {
	Recipients []string
	SiteName   string
	Cooldown   time.Duration
}

// NewAlerter creates an alerter. A nil sender or empty recipient list makes
// every call a no-op.
func NewAlerter(email EmailSender, cfg AlerterConfig, logger *logging.Logger) *Alerter {
	if logger == nil {
		logger = logging.Default()
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = 10 * time.Minute
	}
	var recipients []string
	for _, r := range cfg.Recipients {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}
	return &Alerter{
		email:      email,
		recipients: recipients,
		siteName:   cfg.SiteName,
		cooldown:   cooldown,
		logger:     logger,
		lastSent:   make(map[string]time.Time),
		now:        time.Now,
	}
}

// SubmissionFailed alerts on server-side relay failures. Network and rate
// limit failures are the visitor's problem or transient and are skipped.
func (a *Alerter) SubmissionFailed(ctx context.Context, form string, who Submitter, err error) error {
	if a == nil || a.email == nil || len(a.recipients) == 0 {
		return nil
	}
	var subErr *formsubmit.Error
	if !errors.As(err, &subErr) || subErr.Kind != formsubmit.KindServer {
		return nil
	}
	if !a.reserve(form) {
		a.logger.Debug("notify: alert suppressed by cooldown", "form", form)
		return nil
	}

	subject := fmt.Sprintf("[%s] %s form relay failing", a.siteName, form)
	cause := "unknown"
	if subErr.Err != nil {
		cause = subErr.Err.Error()
	}
	body := fmt.Sprintf(`The %s form could not be delivered to the form processor.

Status: %d
Cause: %s
Submitter: %s <%s>
Time: %s

The visitor was offered the email fallback.`,
		form, subErr.StatusCode, cause, who.Name, who.Email, a.now().UTC().Format(time.RFC1123))

	var errs []error
	for _, recipient := range a.recipients {
		msg := EmailMessage{To: recipient, Subject: subject, Body: body}
		if sendErr := a.email.Send(ctx, msg); sendErr != nil {
			a.logger.Error("notify: failed to send relay alert", "error", sendErr, "to", recipient)
			errs = append(errs, sendErr)
			continue
		}
		a.logger.Info("notify: relay alert sent", "to", recipient, "form", form)
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: relay alert: %w", errors.Join(errs...))
	}
	return nil
}

func (a *Alerter) reserve(form string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()
	if last, ok := a.lastSent[form]; ok && now.Sub(last) < a.cooldown {
		return false
	}
	a.lastSent[form] = now
	return true
}
