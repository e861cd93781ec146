/*

This file contains the assets a simulated deployment is created with.

The base asset is indivisible, the wrapped asset and the fee asset carry 8 decimals, so one base unit
wraps into 10^8 wrapped base units.

*/

package config

import "github.com/elys-network/compounder/internal/types"

var (
	BaseAsset = types.AssetInfo{
		Symbol:   "NEO",
		Address:  "neo-ledger",
		Decimals: 0,
	}
	WrappedAsset = types.AssetInfo{
		Symbol:   "bNEO",
		Address:  "bneo-ledger",
		Decimals: 8,
	}
	FeeAsset = types.AssetInfo{
		Symbol:   "GAS",
		Address:  "gas-ledger",
		Decimals: 8,
	}
)

// AssetBySymbol returns the asset registered under symbol.
func AssetBySymbol(symbol string) (types.AssetInfo, bool) {
	for _, asset := range []types.AssetInfo{BaseAsset, WrappedAsset, FeeAsset} {
		if asset.Symbol == symbol {
			return asset, true
		}
	}
	return types.AssetInfo{}, false
}
