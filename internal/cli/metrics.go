package cli

import (
	"fmt"
	"strings"

	"datalake/internal/config"
	"datalake/internal/logging"
	"datalake/internal/metrics"
	"datalake/internal/metrics/datadog"
	"datalake/internal/metrics/prompush"
)

// setupMetrics installs the configured backend. The returned flush pushes or
// closes it and restores the no-op backend.
func setupMetrics(cfg *config.Config) (flush func(), err error) {
	var b metrics.Backend
	switch strings.ToLower(cfg.Metrics.Backend) {
	case "", "none":
		return func() {}, nil
	case "prometheus":
		b, err = prompush.NewBackend(cfg.Job, cfg.Metrics.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       cfg.Metrics.DatadogAddr,
			Namespace:  cfg.Metrics.Namespace,
			GlobalTags: cfg.Metrics.Tags,
		})
	default:
		return nil, fmt.Errorf("unknown metrics backend %q", cfg.Metrics.Backend)
	}
	if err != nil {
		return nil, err
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			logging.Warn().Err(err).Str("backend", cfg.Metrics.Backend).Msg("metrics flush failed")
		}
		metrics.SetBackend(nil)
	}, nil
}
