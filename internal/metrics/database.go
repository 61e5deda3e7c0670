package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database metrics
var (
	DBConnectionsOpen = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_open",
			Help:      "Total number of open database connections",
		},
	)

	DBConnectionsInUse = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_in_use",
			Help:      "Number of database connections currently in use",
		},
	)

	DBConnectionsIdle = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_idle",
			Help:      "Number of idle database connections",
		},
	)

	DBConnectionsMaxOpen = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_max_open",
			Help:      "Maximum number of open database connections allowed",
		},
	)

	// DBTransactions counts store transactions by operation and result.
	DBTransactions = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_transactions_total",
			Help:      "Total number of database transactions",
		},
		[]string{"result"},
	)
)

// PoolStats is a driver-neutral snapshot of connection pool usage.
type PoolStats struct {
	Open    int
	InUse   int
	Idle    int
	MaxOpen int
}

// StatsSource is implemented by stores that can report pool statistics.
type StatsSource interface {
	PoolStats() PoolStats
}

// DBCollector periodically collects database pool statistics
type DBCollector struct {
	source   StatsSource
	stopChan chan struct{}
}

func NewDBCollector(source StatsSource) *DBCollector {
	return &DBCollector{
		source:   source,
		stopChan: make(chan struct{}),
	}
}

// Start collects pool statistics every interval until ctx is done or Stop
// is called.
func (c *DBCollector) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.collect()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *DBCollector) Stop() {
	close(c.stopChan)
}

func (c *DBCollector) collect() {
	if c.source == nil {
		return
	}

	stat := c.source.PoolStats()
	DBConnectionsOpen.Set(float64(stat.Open))
	DBConnectionsInUse.Set(float64(stat.InUse))
	DBConnectionsIdle.Set(float64(stat.Idle))
	DBConnectionsMaxOpen.Set(float64(stat.MaxOpen))
}

// RecordTx counts a finished transaction.
func RecordTx(err error) {
	result := "committed"
	if err != nil {
		result = "rolled_back"
	}
	DBTransactions.WithLabelValues(result).Inc()
}
