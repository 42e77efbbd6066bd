package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// VaultMetrics aggregates the counters and gauges exported by the vault
// gateway.
type VaultMetrics struct {
	deposits        prometheus.Counter
	withdrawals     prometheus.Counter
	reallocations   *prometheus.CounterVec
	gateRejections  *prometheus.CounterVec
	sessionUses     prometheus.Counter
	sessionFailures *prometheus.CounterVec
	totalAssets     prometheus.Gauge
	currentAPYBps   prometheus.Gauge
}

var (
	vaultOnce     sync.Once
	vaultRegistry *VaultMetrics
)

// Vault returns the process-wide vault metrics registry.
func Vault() *VaultMetrics {
	vaultOnce.Do(func() {
		vaultRegistry = &VaultMetrics{
			deposits: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "vault_deposits_total",
				Help: "Count of accepted deposits.",
			}),
			withdrawals: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "vault_withdrawals_total",
				Help: "Count of accepted withdrawals.",
			}),
			reallocations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vault_reallocations_total",
				Help: "Count of executed reallocations by target source.",
			}, []string{"target"}),
			gateRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vault_gate_rejections_total",
				Help: "Count of reallocation proposals rejected by the gate, by reason.",
			}, []string{"reason"}),
			sessionUses: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "vault_session_validations_total",
				Help: "Count of successful session key validations.",
			}),
			sessionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vault_session_failures_total",
				Help: "Count of failed session key validations, by reason.",
			}, []string{"reason"}),
			totalAssets: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "vault_total_assets",
				Help: "Current pooled assets across idle balance and the active source.",
			}),
			currentAPYBps: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "vault_current_apy_bps",
				Help: "Active source APY in basis points.",
			}),
		}
		prometheus.MustRegister(
			vaultRegistry.deposits,
			vaultRegistry.withdrawals,
			vaultRegistry.reallocations,
			vaultRegistry.gateRejections,
			vaultRegistry.sessionUses,
			vaultRegistry.sessionFailures,
			vaultRegistry.totalAssets,
			vaultRegistry.currentAPYBps,
		)
	})
	return vaultRegistry
}

// RecordDeposit increments the deposit counter.
func (m *VaultMetrics) RecordDeposit() {
	if m == nil {
		return
	}
	m.deposits.Inc()
}

// RecordWithdrawal increments the withdrawal counter.
func (m *VaultMetrics) RecordWithdrawal() {
	if m == nil {
		return
	}
	m.withdrawals.Inc()
}

// RecordReallocation increments the reallocation counter for a target.
func (m *VaultMetrics) RecordReallocation(target string) {
	if m == nil {
		return
	}
	m.reallocations.WithLabelValues(target).Inc()
}

// RecordGateRejection increments the rejection counter for a reason.
func (m *VaultMetrics) RecordGateRejection(reason string) {
	if m == nil {
		return
	}
	m.gateRejections.WithLabelValues(reason).Inc()
}

// RecordSessionUse increments the successful validation counter.
func (m *VaultMetrics) RecordSessionUse() {
	if m == nil {
		return
	}
	m.sessionUses.Inc()
}

// RecordSessionFailure increments the failed validation counter for a reason.
func (m *VaultMetrics) RecordSessionFailure(reason string) {
	if m == nil {
		return
	}
	m.sessionFailures.WithLabelValues(reason).Inc()
}

// SetTotalAssets updates the pooled assets gauge.
func (m *VaultMetrics) SetTotalAssets(v float64) {
	if m == nil {
		return
	}
	m.totalAssets.Set(v)
}

// SetCurrentAPYBps updates the active source APY gauge.
func (m *VaultMetrics) SetCurrentAPYBps(v float64) {
	if m == nil {
		return
	}
	m.currentAPYBps.Set(v)
}
