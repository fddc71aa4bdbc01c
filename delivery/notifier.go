package delivery

import (
	"errors"
	"log/slog"
	"time"

	"github.com/use-agent/seoaudit/models"
	"github.com/use-agent/seoaudit/report"
)

// ErrNoMailer is returned when an email recipient is requested but no SMTP
// server is configured.
var ErrNoMailer = errors.New("delivery: email requested but SMTP is not configured")

// Notifier fans a finished report out to the destinations of a request.
type Notifier struct {
	mailer         Channel // nil disables email
	renderer       *report.Renderer
	delays         []time.Duration
	webhookTimeout time.Duration
	allowPrivate   bool // permit webhooks to loopback and private networks
}

// NewNotifier creates a Notifier. mailer may be nil. Unless allowPrivate is
// set, webhooks may only reach public addresses.
func NewNotifier(mailer Channel, renderer *report.Renderer, delays []time.Duration, webhookTimeout time.Duration, allowPrivate bool) *Notifier {
	if len(delays) == 0 {
		delays = DefaultRetryDelays
	}
	return &Notifier{
		mailer:         mailer,
		renderer:       renderer,
		delays:         delays,
		webhookTimeout: webhookTimeout,
		allowPrivate:   allowPrivate,
	}
}

// Notify queues delivery of rep to every destination in to and returns
// without waiting. Outcomes are logged. The returned error only reports
// destinations that could not be queued at all.
func (n *Notifier) Notify(rep *models.Report, to *models.Notify) error {
	if to.Empty() {
		return nil
	}

	msg, err := NewMessage(rep, to.Email, n.renderer)
	if err != nil {
		return err
	}

	var errs []error
	if to.Email != "" {
		if n.mailer == nil {
			errs = append(errs, ErrNoMailer)
		} else {
			n.watch(Dispatch(n.mailer, msg, n.delays), rep.URL)
		}
	}
	if to.WebhookURL != "" {
		if err := ValidateWebhookURL(to.WebhookURL, n.allowPrivate); err != nil {
			errs = append(errs, err)
		} else {
			wh := NewWebhook(to.WebhookURL, to.WebhookSecret, n.webhookTimeout)
			if !n.allowPrivate {
				wh.publicOnly()
			}
			n.watch(Dispatch(wh, msg, n.delays), rep.URL)
		}
	}
	return errors.Join(errs...)
}

func (n *Notifier) watch(result <-chan error, url string) {
	go func() {
		if err := <-result; err != nil {
			slog.Error("report not delivered", "url", url, "error", err)
		}
	}()
}
