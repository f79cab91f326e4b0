package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transfer metrics
	TransfersCompleted prometheus.Counter
	TransferErrors     *prometheus.CounterVec
	TransferDuration   prometheus.Histogram
	TransferAmount     prometheus.Histogram
	Compensations      prometheus.Counter
	LockTimeouts       prometheus.Counter

	// Ledger metrics
	LedgerWritesPending prometheus.Gauge
	LedgerRetries       prometheus.Counter

	// Authentication metrics
	AuthAttempts *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		TransfersCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corebank_transfers_completed_total",
			Help: "Total number of completed transfers",
		}),
		TransferErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebank_transfer_errors_total",
				Help: "Total number of transfer errors by type",
			},
			[]string{"error_type"},
		),
		TransferDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "corebank_transfer_duration_seconds",
			Help:    "Duration of transfer operations",
			Buckets: prometheus.DefBuckets,
		}),
		TransferAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "corebank_transfer_amount",
			Help:    "Transfer amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		Compensations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corebank_transfer_compensations_total",
			Help: "Total number of rolled-back source debits",
		}),
		LockTimeouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corebank_lock_timeouts_total",
			Help: "Total number of account lock acquisition timeouts",
		}),
		LedgerWritesPending: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "corebank_ledger_writes_pending",
			Help: "Ledger entries awaiting a retried write",
		}),
		LedgerRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corebank_ledger_retries_total",
			Help: "Total number of retried ledger writes",
		}),
		AuthAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebank_auth_attempts_total",
				Help: "Total authentication attempts",
			},
			[]string{"status"},
		),
	}
}
