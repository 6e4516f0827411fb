package notification

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-registration-api/internal/infrastructure/smtp"
	"github.com/go-registration-api/internal/pkg/metrics"
)

const (
	mailSubject  = "Your account validation code"
	mailBodyTmpl = "Hello there!\n\nHere's your account verification code: %s\n\nSee you in a bit!\n"
)

// Mail is a queued validation e-mail. The correlation id of the originating
// request is carried along so delivery failures can be traced back to it.
type Mail struct {
	UserID        string
	To            string
	Code          string
	CorrelationID string
}

// Dispatcher delivers validation e-mails off the request path. Enqueue never
// blocks the handler that scheduled the mail; delivery failures are logged
// and counted but never surfaced to the client and never undo a registration.
// There is no retry: a lost mail is an accepted limitation of this service.
type Dispatcher struct {
	mailer  smtp.Mailer
	metrics *metrics.Metrics
	queue   chan Mail
	wg      sync.WaitGroup
}

func NewDispatcher(mailer smtp.Mailer, m *metrics.Metrics, queueSize int) *Dispatcher {
	if queueSize < 1 {
		queueSize = 64
	}
	d := &Dispatcher{
		mailer:  mailer,
		metrics: m,
		queue:   make(chan Mail, queueSize),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Enqueue schedules a validation e-mail for delivery. If the queue is full
// the mail is dropped and the drop is logged; the registration itself has
// already committed and must not fail.
func (d *Dispatcher) Enqueue(m Mail) {
	select {
	case d.queue <- m:
	default:
		slog.Error("validation e-mail queue full, dropping mail",
			"user_id", m.UserID,
			"correlation_id", m.CorrelationID,
		)
		d.metrics.MailsFailedTotal.Inc()
	}
}

// Close drains the queue and stops the worker. Call during shutdown, after
// the HTTP server has stopped accepting requests.
func (d *Dispatcher) Close() {
	close(d.queue)
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for m := range d.queue {
		d.send(m)
	}
}

func (d *Dispatcher) send(m Mail) {
	body := fmt.Sprintf(mailBodyTmpl, m.Code)
	if err := d.mailer.SendEmail(m.To, mailSubject, body); err != nil {
		slog.Error("validation e-mail delivery failed",
			"user_id", m.UserID,
			"correlation_id", m.CorrelationID,
			"err", err,
		)
		d.metrics.MailsFailedTotal.Inc()
		return
	}
	slog.Info("validation e-mail sent",
		"user_id", m.UserID,
		"correlation_id", m.CorrelationID,
	)
	d.metrics.MailsSentTotal.Inc()
}
