package state

import (
	"encoding/json"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/compounder/internal/types"
)

func withMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	previous := DB
	DB = db
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		DB = previous
		db.Close()
	})
	return mock
}

func TestRequiresInitializedDB(t *testing.T) {
	previous := DB
	DB = nil
	defer func() { DB = previous }()

	_, err := IncrementCompoundCounter()
	assert.ErrorIs(t, err, ErrDBNotInitialized)
	_, err = LoadLatestVaultParameters("cneo-vault")
	assert.ErrorIs(t, err, ErrDBNotInitialized)
	_, err = SaveCompoundSnapshot(types.CompoundSnapshot{})
	assert.ErrorIs(t, err, ErrDBNotInitialized)
	assert.ErrorIs(t, NewJournal().Record("tx", []types.Notification{{Event: types.MintEvent{}}}), ErrDBNotInitialized)
	assert.ErrorIs(t, EnsureSchema(), ErrDBNotInitialized)
}

func TestEnsureSchema(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS vault_parameters").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, EnsureSchema())
}

func expectCounterTable(mock sqlmock.Sqlmock) {
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS compound_counter").WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestIncrementCompoundCounter(t *testing.T) {
	mock := withMockDB(t)
	expectCounterTable(mock)
	mock.ExpectQuery("UPDATE compound_counter").
		WillReturnRows(sqlmock.NewRows([]string{"current_count"}).AddRow(4))

	count, err := IncrementCompoundCounter()
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestGetCompoundCount(t *testing.T) {
	mock := withMockDB(t)
	expectCounterTable(mock)
	mock.ExpectQuery("SELECT current_count FROM compound_counter").
		WillReturnRows(sqlmock.NewRows([]string{"current_count"}))

	count, err := GetCompoundCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestResetCompoundCounter(t *testing.T) {
	assert.Error(t, ResetCompoundCounter(-1))

	mock := withMockDB(t)
	expectCounterTable(mock)
	mock.ExpectExec("UPDATE compound_counter").WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, ResetCompoundCounter(7))

	expectCounterTable(mock)
	mock.ExpectExec("UPDATE compound_counter").WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.Error(t, ResetCompoundCounter(7))
}

func testParameters() types.VaultParameters {
	return types.VaultParameters{
		Owner:          "owner",
		CompoundPeriod: 7 * 24 * time.Hour,
		FeePercent:     5,
		MaxFeePercent:  10,
		GasReward:      sdkmath.ZeroInt(),
		MaxGasReward:   sdkmath.NewInt(100000000),
		MaxSupply:      sdkmath.NewInt(100000000000000),
		MaxSlippage:    10,
		MaxSwapGas:     sdkmath.NewInt(500000000000),
	}
}

func TestSaveVaultParameters(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(version\), 0\) \+ 1 FROM vault_parameters`).
		WithArgs("cneo-vault").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(3))
	mock.ExpectQuery("INSERT INTO vault_parameters").
		WithArgs("cneo-vault", 3, sqlmock.AnyArg(), "owner",
			int64(604800000), sqlmock.AnyArg(),
			5, 10,
			"0", "100000000",
			"100000000000000", 10, "500000000000", 0).
		WillReturnRows(sqlmock.NewRows([]string{"params_id"}).AddRow(11))
	mock.ExpectCommit()

	version, err := SaveVaultParameters("cneo-vault", testParameters())
	require.NoError(t, err)
	assert.Equal(t, 3, version)
}

func TestSaveVaultParametersRollsBack(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE").WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO vault_parameters").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := SaveVaultParameters("cneo-vault", testParameters())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestLoadLatestVaultParameters(t *testing.T) {
	mock := withMockDB(t)
	last := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	columns := []string{
		"owner", "compound_period_ms", "last_compounded",
		"fee_percent", "max_fee_percent",
		"gas_reward", "max_gas_reward",
		"max_supply", "max_slippage", "max_swap_gas", "swap_pair_fee_index",
	}
	mock.ExpectQuery("FROM vault_parameters").
		WithArgs("cneo-vault").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"owner", int64(3600000), last,
			int64(5), int64(10),
			"1000", "100000000",
			"100000000000000", int64(10), "500000000000", int64(1),
		))

	p, err := LoadLatestVaultParameters("cneo-vault")
	require.NoError(t, err)
	assert.Equal(t, types.Address("owner"), p.Owner)
	assert.Equal(t, time.Hour, p.CompoundPeriod)
	assert.True(t, last.Equal(p.LastCompounded))
	assert.Equal(t, uint64(5), p.FeePercent)
	assert.Equal(t, "1000", p.GasReward.String())
	assert.Equal(t, "500000000000", p.MaxSwapGas.String())
	assert.Equal(t, 1, p.SwapPairFeeIndex)
}

func TestLoadLatestVaultParametersMissing(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectQuery("FROM vault_parameters").WillReturnRows(sqlmock.NewRows([]string{"owner"}))

	_, err := LoadLatestVaultParameters("cneo-vault")
	assert.ErrorIs(t, err, ErrNoParameters)
}

func TestLoadLatestVaultParametersInvalidAmount(t *testing.T) {
	mock := withMockDB(t)
	columns := []string{
		"owner", "compound_period_ms", "last_compounded",
		"fee_percent", "max_fee_percent",
		"gas_reward", "max_gas_reward",
		"max_supply", "max_slippage", "max_swap_gas", "swap_pair_fee_index",
	}
	mock.ExpectQuery("FROM vault_parameters").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"owner", int64(3600000), nil,
			int64(5), int64(10),
			"1.5", "100000000",
			"100000000000000", int64(10), "500000000000", int64(0),
		))

	_, err := LoadLatestVaultParameters("cneo-vault")
	assert.ErrorContains(t, err, "gas_reward")
}

func TestJournalRecord(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO vault_events").
		WithArgs("tx-1", 0, "cneo-vault", "Transfer", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO vault_events").
		WithArgs("tx-1", 1, "cneo-vault", "Mint", []byte(`{"account":"alice","amount":"100"}`)).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := NewJournal().Record("tx-1", []types.Notification{
		{Contract: "cneo-vault", Event: types.TransferEvent{From: types.NullAddress, To: "alice", Amount: sdkmath.NewInt(100)}},
		{Contract: "cneo-vault", Event: types.MintEvent{Account: "alice", Amount: sdkmath.NewInt(100)}},
	})
	require.NoError(t, err)
}

func TestJournalRecordRollsBack(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO vault_events").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := NewJournal().Record("tx-1", []types.Notification{
		{Contract: "cneo-vault", Event: types.MintEvent{Account: "alice", Amount: sdkmath.NewInt(100)}},
	})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestJournalSkipsEmptyBatches(t *testing.T) {
	withMockDB(t)
	require.NoError(t, NewJournal().Record("tx-1", nil))
}

func TestGetRecentEvents(t *testing.T) {
	mock := withMockDB(t)
	recorded := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM vault_events").
		WithArgs(sqlmock.AnyArg(), 10).
		WillReturnRows(sqlmock.NewRows([]string{"tx_id", "seq", "contract", "event_name", "payload", "recorded_at"}).
			AddRow("tx-1", 0, "cneo-vault", "Compound", []byte(`{"caller":"keeper"}`), recorded))

	events, err := GetRecentEvents(10, []string{"Compound"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Compound", events[0].Name)
	assert.JSONEq(t, `{"caller":"keeper"}`, string(events[0].Payload))
}

func testSnapshot() types.CompoundSnapshot {
	return types.CompoundSnapshot{
		CycleID:         "2f1a0d44-1d6a-4a57-a0c3-1f4b8f3f4a9e",
		CompoundNumber:  2,
		Timestamp:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Caller:          "keeper",
		Claimed:         sdkmath.NewInt(2000),
		WrappedReceived: sdkmath.NewInt(1800),
		TreasuryCut:     sdkmath.NewInt(100),
		TotalReserves:   sdkmath.NewInt(101800),
		TotalSupply:     sdkmath.NewInt(100000),
		ReserveRatio:    sdkmath.NewInt(1018000000000000000),
		CompoundPeriod:  time.Hour,
	}
}

func TestSaveCompoundSnapshot(t *testing.T) {
	mock := withMockDB(t)
	s := testSnapshot()
	mock.ExpectQuery("INSERT INTO compound_snapshots").
		WithArgs(s.CycleID, 2, s.Timestamp, "keeper",
			"2000", "1800", "100", false,
			"101800", "100000", "1018000000000000000", int64(3600000)).
		WillReturnRows(sqlmock.NewRows([]string{"snapshot_id"}).AddRow(9))

	id, err := SaveCompoundSnapshot(s)
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
}

func TestGetRecentCompounds(t *testing.T) {
	mock := withMockDB(t)
	s := testSnapshot()
	columns := []string{
		"cycle_id", "compound_number", "snapshot_timestamp", "caller",
		"claimed", "wrapped_received", "treasury_cut", "throttled",
		"total_reserves", "total_supply", "reserve_ratio", "compound_period_ms",
	}
	mock.ExpectQuery("FROM compound_snapshots").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(s.CycleID, 2, s.Timestamp, "keeper", "2000", "1800", "100", false, "101800", "100000", "1018000000000000000", int64(3600000)).
			AddRow(s.CycleID, 1, s.Timestamp, "keeper", "bad", "0", "0", false, "0", "0", "0", int64(0)))

	// A limit outside 1..100 falls back to 10; unparsable rows are skipped.
	snapshots, err := GetRecentCompounds(0)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 2, snapshots[0].CompoundNumber)
	assert.Equal(t, "1018000000000000000", snapshots[0].ReserveRatio.String())
	assert.Equal(t, time.Hour, snapshots[0].CompoundPeriod)
}

func TestGetCompoundSummary(t *testing.T) {
	mock := withMockDB(t)
	last := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM compound_snapshots").
		WillReturnRows(sqlmock.NewRows([]string{
			"total_compounds", "throttled_compounds", "total_claimed", "total_wrapped_received", "total_treasury_cut", "last_compounded",
		}).AddRow(3, 1, "6000", "5400", "300", last))

	summary, err := GetCompoundSummary()
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalCompounds)
	assert.Equal(t, "300", summary.TotalTreasuryCut)
	assert.Equal(t, "2024-03-01T12:00:00Z", summary.LastCompounded)

	encoded, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"throttled_compounds":1`)
}

func TestMemoryRecorder(t *testing.T) {
	recorder := &MemoryRecorder{}
	for i := 0; i < 3; i++ {
		number, err := recorder.NextCompoundNumber()
		require.NoError(t, err)
		s := testSnapshot()
		s.CompoundNumber = number
		require.NoError(t, recorder.SaveSnapshot(s))
	}

	recent, err := recorder.RecentCompounds(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 3, recent[0].CompoundNumber)
	assert.Equal(t, 2, recent[1].CompoundNumber)

	all, err := recorder.RecentCompounds(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
