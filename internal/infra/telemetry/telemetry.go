package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/DEFRA/pafs-backend-api-sub003/internal/infra/config"
)

// Provider represents a telemetry provider handle.
type Provider struct {
	loginOutcomes *prometheus.CounterVec
}

// Attach configures telemetry collectors and returns a provider handle.
func Attach(_ context.Context, cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	outcomes := promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pafs",
		Subsystem: "auth",
		Name:      "login_outcomes_total",
		Help:      "Login attempts partitioned by outcome.",
	}, []string{"outcome"})

	return &Provider{
		loginOutcomes: outcomes,
	}, nil
}

// ObserveLoginOutcome increments the login counter for the given outcome code.
func (p *Provider) ObserveLoginOutcome(outcome string) {
	if p == nil || p.loginOutcomes == nil || outcome == "" {
		return
	}
	p.loginOutcomes.WithLabelValues(outcome).Inc()
}
