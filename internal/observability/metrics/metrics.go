package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters for the intake and moderation flows.
type LeadMetrics struct {
	submissionsTotal   *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	adminRequestsTotal *prometheus.CounterVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadsapi",
			Subsystem: "intake",
			Name:      "submissions_total",
			Help:      "Total lead submissions by outcome",
		}, []string{"outcome"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadsapi",
			Subsystem: "intake",
			Name:      "notifications_total",
			Help:      "Total lead notifications by result",
		}, []string{"result"}),
		adminRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadsapi",
			Subsystem: "admin",
			Name:      "requests_total",
			Help:      "Total admin lead operations by action and status",
		}, []string{"action", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.notificationsTotal, m.adminRequestsTotal)
	return m
}

func (m *LeadMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *LeadMetrics) ObserveNotification(result string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(result).Inc()
}

func (m *LeadMetrics) ObserveAdminRequest(action, status string) {
	if m == nil {
		return
	}
	m.adminRequestsTotal.WithLabelValues(action, status).Inc()
}
