// Package metrics exposes Prometheus counters for bookings, reminders and
// the confirmation webhook. All record methods are safe on a nil *Collector.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
	appointmentsCreated *prometheus.CounterVec
	statusChanges       *prometheus.CounterVec
	reminders           *prometheus.CounterVec
	webhookMessages     *prometheus.CounterVec
	jobRuns             *prometheus.CounterVec
}

func NewCollector() *Collector {
	m := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turnos_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "turnos_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		appointmentsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turnos_appointments_created_total",
				Help: "Appointments created, by request shape",
			},
			[]string{"source"},
		),
		statusChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turnos_appointment_status_changes_total",
				Help: "Appointment status transitions made by patients",
			},
			[]string{"status"},
		),
		reminders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turnos_reminders_total",
				Help: "Reminder attempts by outcome",
			},
			[]string{"result"},
		),
		webhookMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turnos_webhook_messages_total",
				Help: "Inbound messages by classified intent",
			},
			[]string{"intent"},
		),
		jobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turnos_job_runs_total",
				Help: "Background job runs by outcome",
			},
			[]string{"job", "result"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.appointmentsCreated,
		m.statusChanges,
		m.reminders,
		m.webhookMessages,
		m.jobRuns,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Collector) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Collector) AppointmentCreated(source string) {
	if m == nil {
		return
	}
	m.appointmentsCreated.WithLabelValues(source).Inc()
}

func (m *Collector) StatusChanged(status string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(status).Inc()
}

// Reminder records one reminder outcome: sent, skipped or failed.
func (m *Collector) Reminder(result string) {
	if m == nil {
		return
	}
	m.reminders.WithLabelValues(result).Inc()
}

func (m *Collector) WebhookMessage(intent string) {
	if m == nil {
		return
	}
	m.webhookMessages.WithLabelValues(intent).Inc()
}

func (m *Collector) JobRun(job string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency keyed by the matched route
// so path parameters do not explode label cardinality.
func (m *Collector) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
