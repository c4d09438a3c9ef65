package searchdex

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vareon/searchdex/internal/metrics"
)

// Option configures a SearchIndex.
type Option func(*SearchIndex)

// WithLogger attaches a zap logger. Compiled commands are logged at debug
// level, index lifecycle events at info. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(i *SearchIndex) {
		if l != nil {
			i.log = l
		}
	}
}

// WithMetrics registers prometheus collectors for façade operations.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(i *SearchIndex) {
		if reg != nil {
			i.rec = metrics.New(reg)
		}
	}
}
