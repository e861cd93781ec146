package simulations

import (
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/elys-network/compounder/internal/chain"
	"github.com/elys-network/compounder/internal/logger"
	"github.com/elys-network/compounder/internal/types"
)

// Swap fee of the simulated pair, in thousandths.
const (
	swapFeeNumerator   = 997
	swapFeeDenominator = 1000
)

// Pair is a constant-product pool. Its reserves are its balances on the two ledgers.
type Pair struct {
	address types.Address
	rt      chain.Runtime
	token0  *Token
	token1  *Token
}

func NewPair(rt chain.Runtime, address types.Address, token0, token1 *Token) *Pair {
	return &Pair{address: address, rt: rt, token0: token0, token1: token1}
}

func (p *Pair) Address() types.Address { return p.address }

func (p *Pair) Token0() types.Address { return p.token0.Address() }

func (p *Pair) Token1() types.Address { return p.token1.Address() }

func (p *Pair) Reserves() (sdkmath.Int, sdkmath.Int) {
	return p.token0.BalanceOf(p.address), p.token1.BalanceOf(p.address)
}

// AddLiquidity issues amount0 and amount1 straight into the pool.
func (p *Pair) AddLiquidity(amount0, amount1 sdkmath.Int) error {
	if err := p.token0.Mint(p.address, amount0); err != nil {
		return err
	}
	return p.token1.Mint(p.address, amount1)
}

// OnPayment accepts any deposit of either pool token.
func (p *Pair) OnPayment(token, _ types.Address, _ sdkmath.Int, _ *types.Payload) error {
	if token != p.Token0() && token != p.Token1() {
		return errorsmod.Wrapf(types.ErrPrecondition, "pair %s does not trade %s", p.address, token)
	}
	return nil
}

// reservesFor returns the pool reserves ordered as (tokenIn, tokenOut).
func (p *Pair) reservesFor(tokenIn types.Address) (sdkmath.Int, sdkmath.Int, *Token, error) {
	reserve0, reserve1 := p.Reserves()
	switch tokenIn {
	case p.Token0():
		return reserve0, reserve1, p.token1, nil
	case p.Token1():
		return reserve1, reserve0, p.token0, nil
	default:
		return sdkmath.Int{}, sdkmath.Int{}, nil, errorsmod.Wrapf(types.ErrPrecondition, "pair %s does not trade %s", p.address, tokenIn)
	}
}

// payOut sends amount of tokenOut from the pool to recipient.
func (p *Pair) payOut(tokenOut *Token, amount sdkmath.Int, recipient types.Address) error {
	defer p.rt.Enter(p.address)()

	ok, err := tokenOut.Transfer(p.address, recipient, amount, nil)
	if err != nil {
		return err
	}
	if !ok {
		return errorsmod.Wrapf(types.ErrCollaborator, "pair %s cannot pay out %s", p.address, amount)
	}
	return nil
}

// AmountOut quotes a constant-product swap after the pool fee.
func AmountOut(amountIn, reserveIn, reserveOut sdkmath.Int) sdkmath.Int {
	if !amountIn.IsPositive() || !reserveIn.IsPositive() || !reserveOut.IsPositive() {
		return sdkmath.ZeroInt()
	}
	amountInWithFee := amountIn.MulRaw(swapFeeNumerator)
	numerator := amountInWithFee.Mul(reserveOut)
	denominator := reserveIn.MulRaw(swapFeeDenominator).Add(amountInWithFee)
	return numerator.Quo(denominator)
}

// Router swaps along single-hop paths, pulling the input from the calling contract through
// chain.ApprovedPayer.
type Router struct {
	address types.Address
	rt      chain.Runtime
	logger  zerolog.Logger
	pairs   map[[2]types.Address]*Pair

	// OverPull is added to the amount pulled from the payer. Non-zero values model a faulty router.
	OverPull sdkmath.Int
	// PullInstallments splits the pull into that many approved transfers. Values above one model
	// a router that reuses a single approval.
	PullInstallments int
}

func NewRouter(rt chain.Runtime, address types.Address, pairs ...*Pair) *Router {
	r := &Router{
		address:  address,
		rt:       rt,
		logger:   logger.GetForComponent("simulation").With().Str("contract", string(address)).Logger(),
		pairs:    make(map[[2]types.Address]*Pair),
		OverPull: sdkmath.ZeroInt(),
	}
	for _, pair := range pairs {
		r.pairs[[2]types.Address{pair.Token0(), pair.Token1()}] = pair
		r.pairs[[2]types.Address{pair.Token1(), pair.Token0()}] = pair
	}
	return r
}

func (r *Router) Address() types.Address { return r.address }

func (r *Router) SwapTokenInForTokenOut(amountIn, amountOutMin sdkmath.Int, path []types.Address, deadline time.Time) (bool, error) {
	defer r.rt.Enter(r.address)()

	if len(path) != 2 {
		return false, errorsmod.Wrapf(types.ErrPrecondition, "only single-hop paths are supported, got %d tokens", len(path))
	}
	if r.rt.Now().After(deadline) {
		return false, errorsmod.Wrap(types.ErrPrecondition, "swap deadline exceeded")
	}
	if amountIn.IsNil() || !amountIn.IsPositive() {
		return false, errorsmod.Wrap(types.ErrPrecondition, "swap amount must be positive")
	}
	pair, ok := r.pairs[[2]types.Address{path[0], path[1]}]
	if !ok {
		return false, errorsmod.Wrapf(types.ErrPrecondition, "no pair for %s -> %s", path[0], path[1])
	}

	payerAddress := r.rt.CallingContract()
	contract, ok := r.rt.Contract(payerAddress)
	if !ok {
		return false, errorsmod.Wrap(types.ErrUnauthorized, "swaps must be initiated by a contract")
	}
	payer, ok := contract.(chain.ApprovedPayer)
	if !ok {
		return false, errorsmod.Wrapf(types.ErrUnauthorized, "contract %s cannot approve transfers", payerAddress)
	}

	reserveIn, reserveOut, tokenOut, err := pair.reservesFor(path[0])
	if err != nil {
		return false, err
	}
	amountOut := AmountOut(amountIn, reserveIn, reserveOut)
	if amountOut.LT(amountOutMin) {
		return false, errorsmod.Wrapf(types.ErrCollaborator, "insufficient output: %s < %s", amountOut, amountOutMin)
	}

	pulled, err := r.pull(payer, path[0], pair.Address(), amountIn.Add(r.OverPull))
	if err != nil {
		return false, err
	}
	if !pulled {
		return false, nil
	}
	if err := pair.payOut(tokenOut, amountOut, payerAddress); err != nil {
		return false, err
	}

	r.logger.Debug().
		Str("amountIn", amountIn.String()).
		Str("amountOut", amountOut.String()).
		Str("payer", string(payerAddress)).
		Msg("Swap executed")
	return true, nil
}

func (r *Router) pull(payer chain.ApprovedPayer, token, to types.Address, amount sdkmath.Int) (bool, error) {
	if r.PullInstallments < 2 {
		return payer.ApprovedTransfer(token, to, amount, nil)
	}

	installment := amount.QuoRaw(int64(r.PullInstallments))
	remaining := amount
	for i := 1; i <= r.PullInstallments; i++ {
		part := installment
		if i == r.PullInstallments {
			part = remaining
		}
		ok, err := payer.ApprovedTransfer(token, to, part, nil)
		if err != nil || !ok {
			return ok, err
		}
		remaining = remaining.Sub(part)
	}
	return true, nil
}
