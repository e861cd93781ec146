package config

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/elys-network/compounder/internal/types"
)

// Collaborator configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// DelegateAgentAddress is the contract that holds the vault's base asset and earns delegation yield.
	DelegateAgentAddress types.Address = "cneo-voter"
	// SwapPairAddress is the DEX pair trading the fee asset against the wrapped asset.
	SwapPairAddress types.Address = "flamingo-gas-bneo"
	// SwapRouterAddress is the DEX router used to execute swaps.
	SwapRouterAddress types.Address = "flamingo-router"

	// InitialPairLiquidity seeds both sides of the simulated pair, in base units of each asset.
	InitialPairLiquidity uint64 = 1000000000000
	// SimulatedYield is the fee asset accrued to the agent and to the wrapped position on every
	// keeper tick of a simulation. Zero disables accrual.
	SimulatedYield uint64
)

// loadCollaboratorConfig loads collaborator identities from environment variables.
// This function is called by LoadConfig() in General.go.
func loadCollaboratorConfig() error {
	log.Info().Msg("Loading collaborator configuration from environment variables...")

	BaseAsset.Address = types.Address(getEnvOrDefault("BASE_ASSET", string(BaseAsset.Address)))
	WrappedAsset.Address = types.Address(getEnvOrDefault("WRAPPED_ASSET", string(WrappedAsset.Address)))
	FeeAsset.Address = types.Address(getEnvOrDefault("FEE_ASSET", string(FeeAsset.Address)))

	DelegateAgentAddress = types.Address(getEnvOrDefault("DELEGATE_AGENT", string(DelegateAgentAddress)))
	SwapPairAddress = types.Address(getEnvOrDefault("SWAP_PAIR", string(SwapPairAddress)))
	SwapRouterAddress = types.Address(getEnvOrDefault("SWAP_ROUTER", string(SwapRouterAddress)))

	if _, exists := os.LookupEnv("SIM_PAIR_LIQUIDITY"); exists {
		liquidity, err := getEnvAsUint64("SIM_PAIR_LIQUIDITY")
		if err != nil {
			return err
		}
		InitialPairLiquidity = liquidity
	}
	if _, exists := os.LookupEnv("SIM_YIELD_PER_TICK"); exists {
		yield, err := getEnvAsUint64("SIM_YIELD_PER_TICK")
		if err != nil {
			return err
		}
		SimulatedYield = yield
	}

	log.Debug().
		Str("BaseAsset", string(BaseAsset.Address)).
		Str("WrappedAsset", string(WrappedAsset.Address)).
		Str("FeeAsset", string(FeeAsset.Address)).
		Str("DelegateAgent", string(DelegateAgentAddress)).
		Str("SwapPair", string(SwapPairAddress)).
		Str("SwapRouter", string(SwapRouterAddress)).
		Msg("Collaborator configuration loaded successfully.")

	return nil
}
