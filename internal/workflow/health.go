package workflow

import (
	"context"

	"mailscout/internal/services"
)

// Health probes every external dependency and returns one record per
// component, mail source first. Probes run against the caller's
// context so status requests carry their own deadline.
func (m *Manager) Health(ctx context.Context) []services.Health {
	out := make([]services.Health, 0, 2)
	out = append(out, m.source.HealthCheck(ctx))

	provider := m.analyzer.AnalysisProviderName()
	if err := m.analyzer.HealthCheck(ctx); err != nil {
		out = append(out, services.Unhealthy(provider, err.Error()))
	} else {
		out = append(out, services.Healthy(provider))
	}
	return out
}

// Healthy reports whether every component probe passed.
func Healthy(components []services.Health) bool {
	for _, component := range components {
		if !component.Ready {
			return false
		}
	}
	return true
}
