// Package metrics exposes vault and keeper telemetry as Prometheus collectors.
// The Collector doubles as an event sink, so it only ever counts committed notifications.
package metrics

import (
	"net/http"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/elys-network/compounder/internal/types"
	"github.com/elys-network/compounder/internal/utils"
)

// Keeper cycle outcomes.
const (
	CycleCompounded = "compounded"
	CycleSkipped    = "skipped"
	CycleFailed     = "failed"
)

// VaultState is the set of vault readings published as gauges.
type VaultState struct {
	TotalReserves  sdkmath.Int
	TotalSupply    sdkmath.Int
	ReserveRatio   sdkmath.Int
	FeeReserves    sdkmath.Int
	CompoundPeriod time.Duration
	NextCompoundAt time.Time
}

// Collector provides compounder metrics collection.
type Collector struct {
	registry *prometheus.Registry

	// Event metrics
	events      *prometheus.CounterVec
	invocations prometheus.Counter

	// Keeper metrics
	cycles       *prometheus.CounterVec
	cycleLatency prometheus.Histogram
	claimed      prometheus.Counter
	throttled    prometheus.Counter

	// Vault gauges
	totalReserves  prometheus.Gauge
	totalSupply    prometheus.Gauge
	reserveRatio   prometheus.Gauge
	feeReserves    prometheus.Gauge
	compoundPeriod prometheus.Gauge
	nextCompound   prometheus.Gauge

	wrappedDecimals int
	feeDecimals     int
}

// NewCollector creates a collector. Amounts are reported in whole units using the given decimals.
func NewCollector(namespace string, wrappedDecimals, feeDecimals uint32) *Collector {
	if namespace == "" {
		namespace = "compounder"
	}

	c := &Collector{
		registry:        prometheus.NewRegistry(),
		wrappedDecimals: int(wrappedDecimals),
		feeDecimals:     int(feeDecimals),
	}

	c.events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "total",
			Help:      "Committed notifications by event name and emitting contract",
		},
		[]string{"event", "contract"},
	)
	c.invocations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "invocations_total",
		Help:      "Committed invocations that emitted at least one notification",
	})

	c.cycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "keeper",
			Name:      "cycles_total",
			Help:      "Keeper cycles by outcome (compounded, skipped, failed)",
		},
		[]string{"result"},
	)
	c.cycleLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "keeper",
		Name:      "cycle_duration_seconds",
		Help:      "Time taken by a keeper cycle",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
	})
	c.claimed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "keeper",
		Name:      "claimed_fee_asset_total",
		Help:      "Fee asset claimed by keeper compounds, in whole units",
	})
	c.throttled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "keeper",
		Name:      "throttled_compounds_total",
		Help:      "Compounds whose swap was clipped to the maximum swap amount",
	})

	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Subsystem: "vault", Name: name, Help: help})
	}
	c.totalReserves = gauge("total_reserves", "Wrapped plus base reserves, in whole wrapped units")
	c.totalSupply = gauge("total_supply", "Outstanding shares, in whole units")
	c.reserveRatio = gauge("reserve_ratio", "Wrapped units backing one share")
	c.feeReserves = gauge("fee_reserves", "Fee asset held by the vault, in whole units")
	c.compoundPeriod = gauge("compound_period_seconds", "Minimum time between compounds")
	c.nextCompound = gauge("next_compound_timestamp_seconds", "Unix time at which the next compound is allowed")

	c.registry.MustRegister(
		c.events, c.invocations,
		c.cycles, c.cycleLatency, c.claimed, c.throttled,
		c.totalReserves, c.totalSupply, c.reserveRatio, c.feeReserves, c.compoundPeriod, c.nextCompound,
	)
	return c
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Record counts the notifications of one committed invocation.
func (c *Collector) Record(_ string, notifications []types.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	c.invocations.Inc()
	for _, n := range notifications {
		c.events.WithLabelValues(n.Event.EventName(), string(n.Contract)).Inc()
	}
	return nil
}

// RecordCycle records the outcome and duration of a keeper cycle.
func (c *Collector) RecordCycle(result string, duration time.Duration) {
	c.cycles.WithLabelValues(result).Inc()
	c.cycleLatency.Observe(duration.Seconds())
}

// RecordCompound adds the yield of a keeper compound.
func (c *Collector) RecordCompound(claimed sdkmath.Int, throttled bool) {
	if amount, err := utils.SDKIntToFloat64(claimed, c.feeDecimals); err == nil {
		c.claimed.Add(amount)
	}
	if throttled {
		c.throttled.Inc()
	}
}

// ObserveVault publishes the current vault readings.
func (c *Collector) ObserveVault(s VaultState) {
	setAmount(c.totalReserves, s.TotalReserves, c.wrappedDecimals)
	setAmount(c.totalSupply, s.TotalSupply, c.wrappedDecimals)
	setAmount(c.reserveRatio, s.ReserveRatio, utils.MaxPrecision)
	setAmount(c.feeReserves, s.FeeReserves, c.feeDecimals)
	c.compoundPeriod.Set(s.CompoundPeriod.Seconds())
	c.nextCompound.Set(float64(s.NextCompoundAt.Unix()))
}

func setAmount(g prometheus.Gauge, amount sdkmath.Int, decimals int) {
	if amount.IsNil() {
		return
	}
	if value, err := utils.SDKIntToFloat64(amount, decimals); err == nil {
		g.Set(value)
	}
}
