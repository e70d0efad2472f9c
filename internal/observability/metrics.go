// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics contains the portal's custom Prometheus metrics. It satisfies the
// recorder interfaces of the login form and the shell.
type Metrics struct {
	LoginAttempts   *prometheus.CounterVec
	SessionRestores *prometheus.CounterVec
	TokenRefreshes  prometheus.Counter
}

// NewMetrics creates and registers the portal metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_login_attempts_total",
				Help: "Total number of login form submissions by outcome",
			},
			[]string{"outcome"},
		),
		SessionRestores: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_session_restores_total",
				Help: "Total number of startup session restores by result",
			},
			[]string{"result"},
		),
		TokenRefreshes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_token_refreshes_total",
				Help: "Total number of successful token refreshes",
			},
		),
	}

	reg.MustRegister(m.LoginAttempts)
	reg.MustRegister(m.SessionRestores)
	reg.MustRegister(m.TokenRefreshes)

	return m
}

// RecordLoginAttempt counts one login submission.
func (m *Metrics) RecordLoginAttempt(outcome string) {
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

// RecordSessionRestore counts one startup restore.
func (m *Metrics) RecordSessionRestore(result string) {
	m.SessionRestores.WithLabelValues(result).Inc()
}

// RecordTokenRefresh counts one successful refresh.
func (m *Metrics) RecordTokenRefresh() {
	m.TokenRefreshes.Inc()
}
