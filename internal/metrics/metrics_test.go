package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/compounder/internal/types"
)

func TestRecordCountsCommittedEvents(t *testing.T) {
	c := NewCollector("test", 8, 8)

	require.NoError(t, c.Record("tx-1", []types.Notification{
		{Contract: "cneo-vault", Event: types.MintEvent{}},
		{Contract: "cneo-vault", Event: types.TransferEvent{}},
		{Contract: "bneo-ledger", Event: types.TransferEvent{}},
	}))
	require.NoError(t, c.Record("tx-2", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.events.WithLabelValues("Mint", "cneo-vault")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.events.WithLabelValues("Transfer", "bneo-ledger")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.invocations))
}

func TestRecordCycle(t *testing.T) {
	c := NewCollector("", 8, 8)
	c.RecordCycle(CycleCompounded, 3*time.Millisecond)
	c.RecordCycle(CycleSkipped, time.Millisecond)
	c.RecordCycle(CycleSkipped, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.cycles.WithLabelValues(CycleCompounded)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.cycles.WithLabelValues(CycleSkipped)))

	c.RecordCompound(sdkmath.NewInt(250000000), true)
	assert.Equal(t, 2.5, testutil.ToFloat64(c.claimed))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.throttled))
}

func TestObserveVault(t *testing.T) {
	c := NewCollector("test", 8, 8)
	next := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	c.ObserveVault(VaultState{
		TotalReserves:  sdkmath.NewInt(110000000000),
		TotalSupply:    sdkmath.NewInt(100000000000),
		ReserveRatio:   sdkmath.NewInt(1100000000000000000),
		FeeReserves:    sdkmath.NewInt(50000000),
		CompoundPeriod: time.Hour,
		NextCompoundAt: next,
	})

	assert.Equal(t, 1100.0, testutil.ToFloat64(c.totalReserves))
	assert.Equal(t, 1000.0, testutil.ToFloat64(c.totalSupply))
	assert.InDelta(t, 1.1, testutil.ToFloat64(c.reserveRatio), 1e-12)
	assert.Equal(t, 0.5, testutil.ToFloat64(c.feeReserves))
	assert.Equal(t, 3600.0, testutil.ToFloat64(c.compoundPeriod))
	assert.Equal(t, float64(next.Unix()), testutil.ToFloat64(c.nextCompound))
}

func TestHandlerServesRegistry(t *testing.T) {
	c := NewCollector("test", 8, 8)
	c.RecordCycle(CycleFailed, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `test_keeper_cycles_total{result="failed"} 1`))
}
