package constants

import (
	"github.com/syntropynet/globaldb/pkg/globaldb"
)

const (
	ETH  = "ETH"
	BTC  = "BTC"
	USD  = "USD"
	EUR  = "EUR"
	DAI  = "_ceth_0x6B175474E89094C44Da98b954EedeAC495271d0F"
	WETH = "_ceth_0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	USDC = "_ceth_0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
)

func ptr[T any](v T) *T {
	return &v
}

func token(identifier, name, symbol string, decimals int) globaldb.AssetData {
	address := identifier[len(globaldb.EthereumIdentifierPrefix):]
	return globaldb.AssetData{
		Identifier:      identifier,
		Type:            globaldb.AssetTypeEthereumToken,
		Name:            ptr(name),
		Symbol:          ptr(symbol),
		EthereumAddress: ptr(address),
		Decimals:        ptr(decimals),
	}
}

// WellKnown returns the compiled-in descriptors of the assets the rest of the program refers to by constant.
func WellKnown() []globaldb.AssetData {
	return []globaldb.AssetData{
		{Identifier: ETH, Type: globaldb.AssetTypeOwnChain, Name: ptr("Ethereum"), Symbol: ptr("ETH"), Started: ptr(globaldb.Timestamp(1438214400)), Coingecko: ptr("ethereum"), Cryptocompare: ptr("ETH")},
		{Identifier: BTC, Type: globaldb.AssetTypeOwnChain, Name: ptr("Bitcoin"), Symbol: ptr("BTC"), Started: ptr(globaldb.Timestamp(1231006505)), Coingecko: ptr("bitcoin"), Cryptocompare: ptr("BTC")},
		{Identifier: USD, Type: globaldb.AssetTypeFiat, Name: ptr("United States Dollar"), Symbol: ptr("$")},
		{Identifier: EUR, Type: globaldb.AssetTypeFiat, Name: ptr("Euro"), Symbol: ptr("€")},
		token(DAI, "Multi Collateral Dai", "DAI", 18),
		token(WETH, "Wrapped Ether", "WETH", 18),
		token(USDC, "USD Coin", "USDC", 6),
	}
}

var defaultRegistry = NewRegistry(WellKnown())

// Default is the process wide registry republished by the global DB on construction.
func Default() *Registry {
	return defaultRegistry
}
