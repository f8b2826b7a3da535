package environment

import (
	"testing"

	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	"github.com/stretchr/testify/require"
)

func TestToSdkCoins_SortsAndSkipsUnparsable(t *testing.T) {
	coins := toSdkCoins([]Coin{
		{Denom: "uosmo", Amount: "100"},
		{Denom: "uatom", Amount: "50"},
		{Denom: "ujuno", Amount: "not-a-number"},
	})
	require.Len(t, coins, 2)
	require.Equal(t, "uatom", coins[0].Denom)
	require.Equal(t, "uosmo", coins[1].Denom)
}

func TestToSdkCoins_Empty(t *testing.T) {
	coins := toSdkCoins(nil)
	require.Empty(t, coins)
}

func TestToWasmAccessConfig_OnlyAddressFallsBackToCreator(t *testing.T) {
	cfg := toWasmAccessConfig(&AccessConfig{Permission: AccessTypeOnlyAddress}, "cosmos1creator")
	require.Equal(t, wasmtypes.AccessTypeOnlyAddress, cfg.Permission)
	require.Equal(t, "cosmos1creator", cfg.Address)
}

func TestToWasmAccessConfig_OnlyAddressUsesExplicitAddress(t *testing.T) {
	cfg := toWasmAccessConfig(&AccessConfig{Permission: AccessTypeOnlyAddress, Addresses: []string{"cosmos1other"}}, "cosmos1creator")
	require.Equal(t, "cosmos1other", cfg.Address)
}

func TestToWasmAccessConfig_AnyOfAddresses(t *testing.T) {
	cfg := toWasmAccessConfig(&AccessConfig{Permission: AccessTypeAnyOfAddresses, Addresses: []string{"a", "b"}}, "creator")
	require.Equal(t, wasmtypes.AccessTypeAnyOfAddresses, cfg.Permission)
	require.Equal(t, []string{"a", "b"}, cfg.Addresses)
}

func TestToWasmAccessConfig_Nobody(t *testing.T) {
	cfg := toWasmAccessConfig(&AccessConfig{Permission: AccessTypeNobody}, "creator")
	require.Equal(t, wasmtypes.AccessTypeNobody, cfg.Permission)
}

func TestToWasmAccessConfig_DefaultsToEverybody(t *testing.T) {
	cfg := toWasmAccessConfig(&AccessConfig{}, "creator")
	require.Equal(t, wasmtypes.AccessTypeEverybody, cfg.Permission)
}
