// Package delivery sends rendered reports to their recipients. Delivery
// never changes a report; failures are reported to the caller only.
package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/seoaudit/metrics"
	"github.com/use-agent/seoaudit/models"
	"github.com/use-agent/seoaudit/report"
)

// DefaultRetryDelays are the waits before each attempt: one immediate try
// and three retries.
var DefaultRetryDelays = []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}

// attemptTimeout bounds a single delivery attempt.
const attemptTimeout = 30 * time.Second

// Message is a rendered report addressed to one recipient.
type Message struct {
	Recipient string
	Subject   string
	HTML      string
	Text      string
	Report    *models.Report
}

// Channel delivers messages over one transport.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, msg *Message) error
}

// Subject is the email subject line for rep.
func Subject(rep *models.Report) string {
	return fmt.Sprintf("SEO Report for %s - Score: %d/100", rep.URL, rep.Score)
}

// NewMessage renders rep for recipient.
func NewMessage(rep *models.Report, recipient string, r *report.Renderer) (*Message, error) {
	text, err := r.Text(rep)
	if err != nil {
		return nil, fmt.Errorf("delivery: render text part: %w", err)
	}
	return &Message{
		Recipient: recipient,
		Subject:   Subject(rep),
		HTML:      r.HTML(rep),
		Text:      text,
		Report:    rep,
	}, nil
}

// Dispatch delivers msg in the background, retrying after each failure with
// the given delays. The returned channel receives exactly one value: nil on
// success or a DELIVERY_FAILED error once every attempt failed.
func Dispatch(ch Channel, msg *Message, delays []time.Duration) <-chan error {
	if len(delays) == 0 {
		delays = []time.Duration{0}
	}
	result := make(chan error, 1)
	go func() {
		defer close(result)
		var lastErr error
		for attempt, delay := range delays {
			if delay > 0 {
				time.Sleep(delay)
			}
			ctx, cancel := context.WithTimeout(context.Background(), attemptTimeout)
			lastErr = ch.Deliver(ctx, msg)
			cancel()
			if lastErr == nil {
				slog.Info("report delivered",
					"channel", ch.Name(),
					"recipient", msg.Recipient,
					"attempt", attempt+1,
				)
				metrics.DeliveriesTotal.WithLabelValues(ch.Name(), "ok").Inc()
				result <- nil
				return
			}
			slog.Warn("report delivery failed",
				"channel", ch.Name(),
				"recipient", msg.Recipient,
				"attempt", attempt+1,
				"error", lastErr,
			)
		}
		slog.Error("report delivery exhausted all retries",
			"channel", ch.Name(),
			"recipient", msg.Recipient,
		)
		metrics.DeliveriesTotal.WithLabelValues(ch.Name(), "failed").Inc()
		result <- models.NewAuditError(models.ErrCodeDeliveryFailed,
			fmt.Sprintf("%s delivery failed after %d attempts", ch.Name(), len(delays)), lastErr)
	}()
	return result
}
