// Package metrics exposes login and authorization counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Verification outcomes and token rejection reasons used as label values.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeExpired  = "expired"
	OutcomeMismatch = "mismatch"

	ReasonMalformed = "malformed"
	ReasonExpired   = "expired"
)

// Recorder is what services and middleware report to.
type Recorder interface {
	CodeIssued()
	CodeVerified(outcome string)
	TokenRejected(reason string)
	AccessDenied(status int)
}

type Collector struct {
	codesIssued    prometheus.Counter
	verifications  *prometheus.CounterVec
	tokensRejected *prometheus.CounterVec
	accessDenied   *prometheus.CounterVec
}

// NewCollector creates the counters and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		codesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kanban_login_codes_issued_total",
			Help: "Login codes generated and stored.",
		}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kanban_login_code_verifications_total",
			Help: "Login code verification attempts by outcome.",
		}, []string{"outcome"}),
		tokensRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kanban_session_tokens_rejected_total",
			Help: "Session tokens downgraded to guest, by reason.",
		}, []string{"reason"}),
		accessDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kanban_access_denied_total",
			Help: "Requests refused by role checks, by HTTP status.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(c.codesIssued, c.verifications, c.tokensRejected, c.accessDenied)
	return c
}

func (c *Collector) CodeIssued() { c.codesIssued.Inc() }

func (c *Collector) CodeVerified(outcome string) {
	c.verifications.WithLabelValues(outcome).Inc()
}

func (c *Collector) TokenRejected(reason string) {
	c.tokensRejected.WithLabelValues(reason).Inc()
}

func (c *Collector) AccessDenied(status int) {
	c.accessDenied.WithLabelValues(strconv.Itoa(status)).Inc()
}

// Nop discards everything. Used when metrics are disabled and in tests.
type Nop struct{}

func (Nop) CodeIssued()          {}
func (Nop) CodeVerified(string)  {}
func (Nop) TokenRejected(string) {}
func (Nop) AccessDenied(int)     {}

// Handler returns the scrape endpoint for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
