package metrics

import (
	"errors"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// SigningMetrics counts contract signing workflow outcomes.
type SigningMetrics struct {
	reviewViews   prometheus.Counter
	approvals     prometheus.Counter
	signSucceeded prometheus.Counter
	signRejected  prometheus.Counter
}

var (
	signingMetricsOnce sync.Once
	signingMetrics     *SigningMetrics
)

// Signing returns the process-wide signing metrics set.
func Signing() *SigningMetrics {
	return SigningWithConfig(Config{})
}

func SigningWithConfig(cfg Config) *SigningMetrics {
	signingMetricsOnce.Do(func() {
		signingMetrics = newSigningMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return signingMetrics
}

func ResetSigningMetricsForTest() {
	signingMetricsOnce = sync.Once{}
	signingMetrics = nil
}

func newSigningMetrics(registerer prometheus.Registerer, cfg Config) *SigningMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "crescendo"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "development"
	}
	labels := prometheus.Labels{
		"service":     serviceName,
		"environment": environment,
	}

	m := &SigningMetrics{
		reviewViews: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "contract_review_views_total",
			Help:        "Reviewer link views that reached a valid contract.",
			ConstLabels: labels,
		}),
		approvals: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "contract_approvals_total",
			Help:        "Reviewer approvals that completed the handoff.",
			ConstLabels: labels,
		}),
		signSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "contract_signs_total",
			Help:        "Successful contract signatures.",
			ConstLabels: labels,
		}),
		signRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "contract_sign_rejections_total",
			Help:        "Sign attempts rejected for invalid, expired or consumed tokens.",
			ConstLabels: labels,
		}),
	}

	for _, collector := range []prometheus.Collector{m.reviewViews, m.approvals, m.signSucceeded, m.signRejected} {
		if err := registerer.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				panic(err)
			}
		}
	}
	return m
}

func (m *SigningMetrics) ReviewViewed() {
	if m == nil {
		return
	}
	m.reviewViews.Inc()
}

func (m *SigningMetrics) Approved() {
	if m == nil {
		return
	}
	m.approvals.Inc()
}

func (m *SigningMetrics) Signed() {
	if m == nil {
		return
	}
	m.signSucceeded.Inc()
}

func (m *SigningMetrics) SignRejected() {
	if m == nil {
		return
	}
	m.signRejected.Inc()
}
