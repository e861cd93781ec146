package chain

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/elys-network/compounder/internal/logger"
	"github.com/elys-network/compounder/internal/types"
)

// Error definitions for zero-tolerance error handling
var (
	ErrNullAddress        = errors.New("contract address cannot be null")
	ErrAlreadyDeployed    = errors.New("contract already deployed at address")
	ErrNoSigners          = errors.New("invocation requires at least one signer")
	ErrFrameMismatch      = errors.New("call frame popped out of order")
	ErrNilClock           = errors.New("clock cannot be nil")
	ErrUnexpectedSnapshot = errors.New("unexpected snapshot type")
)

// Host runs contracts in-process. Every Invoke is atomic: the state of every deployed Snapshotter
// is captured before the call and restored if the call fails, and notifications are only
// published to sinks after the call succeeds.
type Host struct {
	mu     sync.Mutex
	clock  func() time.Time
	logger zerolog.Logger

	contracts map[types.Address]any
	order     []types.Address
	sinks     []EventSink

	// Per-invocation state, guarded by mu.
	invoking bool
	txID     string
	now      time.Time
	signers  map[types.Address]bool
	frames   []types.Address
	pending  []types.Notification
}

// NewHost creates a host reading block time from clock.
func NewHost(clock func() time.Time) (*Host, error) {
	if clock == nil {
		return nil, ErrNilClock
	}
	return &Host{
		clock:     clock,
		logger:    logger.GetForComponent("chain_host"),
		contracts: make(map[types.Address]any),
	}, nil
}

// Deploy registers contract at address. Contracts implementing Snapshotter take part in rollback.
func (h *Host) Deploy(address types.Address, contract any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if address.IsNull() {
		return ErrNullAddress
	}
	if _, exists := h.contracts[address]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyDeployed, address)
	}
	h.contracts[address] = contract
	h.order = append(h.order, address)

	_, journaled := contract.(Snapshotter)
	h.logger.Debug().
		Str("address", string(address)).
		Bool("journaled", journaled).
		Msg("Contract deployed")
	return nil
}

// AddSink subscribes sink to committed notifications.
func (h *Host) AddSink(sink EventSink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sinks = append(h.sinks, sink)
}

// Invoke runs fn as one indivisible unit authorised by signers. If fn returns an error or panics,
// every journaled contract is restored and buffered notifications are discarded.
// Invocations are serialised; fn must not call Invoke or View.
func (h *Host) Invoke(signers []types.Address, fn func() error) (err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(signers) == 0 {
		return ErrNoSigners
	}

	h.begin(signers)
	snapshots := h.snapshotAll()

	defer func() {
		if r := recover(); r != nil {
			h.restoreAll(snapshots)
			h.logger.Error().Str("tx_id", h.txID).Interface("panic", r).Msg("Invocation panicked, state restored")
			h.end()
			panic(r)
		}
	}()

	if err = fn(); err != nil {
		h.restoreAll(snapshots)
		h.logger.Debug().
			Err(err).
			Str("tx_id", h.txID).
			Str("kind", types.Kind(err).String()).
			Msg("Invocation reverted")
		h.end()
		return err
	}

	txID, notifications := h.txID, h.pending
	h.end()
	h.publish(txID, notifications)
	return nil
}

// View runs a read-only closure without interleaving with invocations.
func (h *Host) View(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn()
}

// Now returns the block time of the running invocation, or the clock outside one.
func (h *Host) Now() time.Time {
	if h.invoking {
		return h.now
	}
	return h.clock()
}

func (h *Host) CheckWitness(account types.Address) bool {
	if !h.invoking || account.IsNull() {
		return false
	}
	if h.signers[account] {
		return true
	}
	return h.CallingContract() == account
}

func (h *Host) IsContract(address types.Address) bool {
	_, ok := h.contracts[address]
	return ok
}

func (h *Host) Contract(address types.Address) (any, bool) {
	contract, ok := h.contracts[address]
	return contract, ok
}

func (h *Host) Enter(address types.Address) func() {
	h.frames = append(h.frames, address)
	depth := len(h.frames)
	return func() {
		if len(h.frames) != depth || h.frames[depth-1] != address {
			panic(fmt.Errorf("%w: expected %s at depth %d", ErrFrameMismatch, address, depth))
		}
		h.frames = h.frames[:depth-1]
	}
}

func (h *Host) CallingContract() types.Address {
	if len(h.frames) < 2 {
		return types.NullAddress
	}
	return h.frames[len(h.frames)-2]
}

// Emit buffers event for the running invocation. Outside an invocation it is published at once.
func (h *Host) Emit(event types.Event) {
	var emitter types.Address
	if len(h.frames) > 0 {
		emitter = h.frames[len(h.frames)-1]
	}
	notification := types.Notification{Contract: emitter, Event: event}
	if !h.invoking {
		h.publish(uuid.New().String(), []types.Notification{notification})
		return
	}
	h.pending = append(h.pending, notification)
}

func (h *Host) begin(signers []types.Address) {
	h.invoking = true
	h.txID = uuid.New().String()
	h.now = h.clock()
	h.signers = make(map[types.Address]bool, len(signers))
	for _, signer := range signers {
		h.signers[signer] = true
	}
	h.frames = h.frames[:0]
	h.pending = nil
}

func (h *Host) end() {
	h.invoking = false
	h.txID = ""
	h.signers = nil
	h.frames = h.frames[:0]
	h.pending = nil
}

func (h *Host) snapshotAll() map[types.Address]any {
	snapshots := make(map[types.Address]any, len(h.order))
	for _, address := range h.order {
		if journaled, ok := h.contracts[address].(Snapshotter); ok {
			snapshots[address] = journaled.Snapshot()
		}
	}
	return snapshots
}

func (h *Host) restoreAll(snapshots map[types.Address]any) {
	for _, address := range h.order {
		if journaled, ok := h.contracts[address].(Snapshotter); ok {
			journaled.Restore(snapshots[address])
		}
	}
}

func (h *Host) publish(txID string, notifications []types.Notification) {
	if len(notifications) == 0 {
		return
	}
	for _, sink := range h.sinks {
		if err := sink.Record(txID, notifications); err != nil {
			h.logger.Error().Err(err).Str("tx_id", txID).Msg("Event sink failed to record notifications")
		}
	}
}
