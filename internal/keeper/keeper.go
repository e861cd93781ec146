// Package keeper drives the vault's compound operation on a schedule and records what each
// compound did.
package keeper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/elys-network/compounder/internal/logger"
	"github.com/elys-network/compounder/internal/metrics"
	"github.com/elys-network/compounder/internal/types"
	"github.com/elys-network/compounder/internal/vault"
)

// Host runs invocations against the deployment the vault lives in.
type Host interface {
	Invoke(signers []types.Address, fn func() error) error
	View(fn func())
	Now() time.Time
}

// Vault is the part of the vault the keeper reads and calls.
type Vault interface {
	Compound(caller types.Address) (vault.CompoundResult, error)
	NextCompoundAt() time.Time
	Parameters() types.VaultParameters
	TotalReserves() sdkmath.Int
	TotalSupply() sdkmath.Int
	ReserveRatio() sdkmath.Int
	FeeReserves() sdkmath.Int
}

// Recorder numbers and persists compound snapshots.
type Recorder interface {
	NextCompoundNumber() (int, error)
	SaveSnapshot(snapshot types.CompoundSnapshot) error
}

// Telemetry receives cycle outcomes. *metrics.Collector implements it.
type Telemetry interface {
	RecordCycle(result string, duration time.Duration)
	RecordCompound(claimed sdkmath.Int, throttled bool)
	ObserveVault(state metrics.VaultState)
}

// Keeper calls compound whenever the vault's period has elapsed
type Keeper struct {
	logger    zerolog.Logger
	host      Host
	vault     Vault
	caller    types.Address
	recorder  Recorder
	telemetry Telemetry

	mu         sync.Mutex
	cycleCount int
}

// Config holds the dependencies of a Keeper.
type Config struct {
	Host      Host
	Vault     Vault
	Caller    types.Address
	Recorder  Recorder
	Telemetry Telemetry // optional
}

// NewKeeper creates a keeper after validating its configuration.
func NewKeeper(cfg Config) (*Keeper, error) {
	if err := validateKeeperConfig(cfg); err != nil {
		return nil, fmt.Errorf("keeper configuration validation failed: %w", err)
	}

	k := &Keeper{
		logger:    logger.GetForComponent("keeper"),
		host:      cfg.Host,
		vault:     cfg.Vault,
		caller:    cfg.Caller,
		recorder:  cfg.Recorder,
		telemetry: cfg.Telemetry,
	}

	k.logger.Info().
		Str("caller", string(k.caller)).
		Msg("Keeper created")

	return k, nil
}

func validateKeeperConfig(cfg Config) error {
	if cfg.Host == nil {
		return errors.New("host cannot be nil")
	}
	if cfg.Vault == nil {
		return errors.New("vault cannot be nil")
	}
	if cfg.Recorder == nil {
		return errors.New("recorder cannot be nil")
	}
	if cfg.Caller.IsNull() {
		return errors.New("caller account cannot be empty")
	}
	return nil
}

// CycleCount returns how many cycles have run.
func (k *Keeper) CycleCount() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.cycleCount
}

// RunLoop runs a cycle immediately and then once per interval until ctx is cancelled.
func (k *Keeper) RunLoop(ctx context.Context, interval time.Duration) {
	k.logger.Info().
		Dur("interval", interval).
		Msg("Starting keeper loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	k.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			k.logger.Info().Msg("Keeper loop stopped due to context cancellation")
			return
		case <-ticker.C:
			k.tick(ctx)
		}
	}
}

// RunScheduled runs a cycle on every activation of the cron expression until ctx is cancelled.
// Standard five-field expressions and descriptors such as "@every 10m" are accepted.
func (k *Keeper) RunScheduled(ctx context.Context, schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { k.tick(ctx) }); err != nil {
		return fmt.Errorf("invalid keeper schedule %q: %w", schedule, err)
	}

	k.logger.Info().Str("schedule", schedule).Msg("Starting keeper scheduler")
	c.Start()

	<-ctx.Done()
	// Wait for a running cycle to finish.
	<-c.Stop().Done()
	k.logger.Info().Msg("Keeper scheduler stopped due to context cancellation")
	return nil
}

func (k *Keeper) tick(ctx context.Context) {
	k.mu.Lock()
	k.cycleCount++
	cycle := k.cycleCount
	k.mu.Unlock()

	k.logger.Debug().Int("cycle", cycle).Msg("Initiating keeper cycle")
	result, err := k.RunCycle(ctx)
	if err != nil {
		k.logger.Error().Err(err).Int("cycle", cycle).Str("result", result).Msg("Keeper cycle failed")
		return
	}
	k.logger.Debug().Int("cycle", cycle).Str("result", result).Msg("Keeper cycle completed")
}

// RunCycle compounds once if the vault is due. It returns one of the metrics.Cycle* outcomes.
// A compound that committed is never reported as failed, even if recording its snapshot fails.
func (k *Keeper) RunCycle(ctx context.Context) (string, error) {
	cycleStart := time.Now()
	cycleID := uuid.New().String()
	cycleLogger := k.logger.With().Str("cycle_id", cycleID).Logger()

	outcome, err := k.runCycle(ctx, cycleID, cycleLogger)
	if k.telemetry != nil {
		k.telemetry.RecordCycle(outcome, time.Since(cycleStart))
		k.telemetry.ObserveVault(k.readState())
	}
	return outcome, err
}

func (k *Keeper) runCycle(ctx context.Context, cycleID string, cycleLogger zerolog.Logger) (string, error) {
	if err := ctx.Err(); err != nil {
		return metrics.CycleSkipped, nil
	}

	var due, now time.Time
	k.host.View(func() {
		due = k.vault.NextCompoundAt()
		now = k.host.Now()
	})
	if now.Before(due) {
		cycleLogger.Debug().
			Time("nextCompoundAt", due).
			Dur("remaining", due.Sub(now)).
			Msg("Compound not due yet")
		return metrics.CycleSkipped, nil
	}

	var result vault.CompoundResult
	err := k.host.Invoke([]types.Address{k.caller}, func() error {
		var err error
		result, err = k.vault.Compound(k.caller)
		return err
	})
	if err != nil {
		return metrics.CycleFailed, fmt.Errorf("compound rejected: %w", err)
	}

	cycleLogger.Info().
		Str("claimed", result.Claimed.String()).
		Str("wrappedReceived", result.WrappedReceived.String()).
		Str("treasuryCut", result.TreasuryCut.String()).
		Bool("throttled", result.Throttled).
		Time("nextCompoundAt", result.NextCompoundAt).
		Msg("Compound committed")

	if k.telemetry != nil {
		k.telemetry.RecordCompound(result.Claimed, result.Throttled)
	}

	snapshot, err := k.buildSnapshot(cycleID, result)
	if err != nil {
		cycleLogger.Error().Err(err).Msg("Failed to number compound snapshot")
		return metrics.CycleCompounded, nil
	}
	if err := k.recorder.SaveSnapshot(snapshot); err != nil {
		cycleLogger.Error().Err(err).Int("compoundNumber", snapshot.CompoundNumber).Msg("Failed to save compound snapshot")
		return metrics.CycleCompounded, nil
	}

	cycleLogger.Debug().Int("compoundNumber", snapshot.CompoundNumber).Msg("Compound snapshot saved")
	return metrics.CycleCompounded, nil
}

func (k *Keeper) buildSnapshot(cycleID string, result vault.CompoundResult) (types.CompoundSnapshot, error) {
	number, err := k.recorder.NextCompoundNumber()
	if err != nil {
		return types.CompoundSnapshot{}, err
	}

	var compoundedAt time.Time
	k.host.View(func() { compoundedAt = k.vault.Parameters().LastCompounded })

	state := k.readState()
	return types.CompoundSnapshot{
		CycleID:         cycleID,
		CompoundNumber:  number,
		Timestamp:       compoundedAt,
		Caller:          k.caller,
		Claimed:         result.Claimed,
		WrappedReceived: result.WrappedReceived,
		TreasuryCut:     result.TreasuryCut,
		Throttled:       result.Throttled,
		TotalReserves:   state.TotalReserves,
		TotalSupply:     state.TotalSupply,
		ReserveRatio:    state.ReserveRatio,
		CompoundPeriod:  state.CompoundPeriod,
	}, nil
}

func (k *Keeper) readState() metrics.VaultState {
	var s metrics.VaultState
	k.host.View(func() {
		params := k.vault.Parameters()
		s = metrics.VaultState{
			TotalReserves:  k.vault.TotalReserves(),
			TotalSupply:    k.vault.TotalSupply(),
			ReserveRatio:   k.vault.ReserveRatio(),
			FeeReserves:    k.vault.FeeReserves(),
			CompoundPeriod: params.CompoundPeriod,
			NextCompoundAt: params.NextCompoundAt(),
		}
	})
	return s
}
