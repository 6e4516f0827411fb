package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects the counters the service exposes on /metrics.
type Metrics struct {
	RegistrationsTotal prometheus.Counter
	ValidationsTotal   prometheus.Counter
	MailsSentTotal     prometheus.Counter
	MailsFailedTotal   prometheus.Counter
}

// New registers the counters on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the counters on the given registerer. Tests pass a fresh
// registry so repeated registration does not panic.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RegistrationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "registration_api_registrations_total",
			Help: "Total number of users successfully registered",
		}),
		ValidationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "registration_api_validations_total",
			Help: "Total number of users successfully validated",
		}),
		MailsSentTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "registration_api_validation_mails_sent_total",
			Help: "Total number of validation e-mails delivered to the SMTP server",
		}),
		MailsFailedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "registration_api_validation_mails_failed_total",
			Help: "Total number of validation e-mails that could not be sent",
		}),
	}
}
