package metrics

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// Register adds c to reg. When an identical collector is already registered
// the existing one is returned so callers share a single series.
func Register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RegisterPgxPoolMetrics exposes pgx connection pool statistics as Prometheus gauges.
func RegisterPgxPoolMetrics(reg prometheus.Registerer, pool *pgxpool.Pool) error {
	gauges := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pgxpool_acquired_conns",
			Help: "Number of currently acquired connections in the pool",
		}, func() float64 {
			return float64(pool.Stat().AcquiredConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pgxpool_max_conns",
			Help: "Maximum number of connections in the pool",
		}, func() float64 {
			return float64(pool.Stat().MaxConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pgxpool_total_conns",
			Help: "Total number of connections in the pool",
		}, func() float64 {
			return float64(pool.Stat().TotalConns())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pgxpool_idle_conns",
			Help: "Number of idle connections in the pool",
		}, func() float64 {
			return float64(pool.Stat().IdleConns())
		}),
	}
	for _, g := range gauges {
		if err := reg.Register(g); err != nil {
			return err
		}
	}
	return nil
}
