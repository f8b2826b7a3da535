package cworch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewChainInfo_RejectsNoFeeTokens(t *testing.T) {
	_, err := NewChainInfo(ChainInfo{ChainID: "pion-1"})
	require.Error(t, err)
}

func TestNewChainInfo_SortsShortestDenomFirst(t *testing.T) {
	ci, err := NewChainInfo(ChainInfo{
		ChainID: "neutron-1",
		FeeTokens: []FeeToken{
			{Denom: "ibc/27394FB092D2ECCD56123C74F36E4C1F926001CEADA9CA97EA622B25F41E5EB", MinGasPrice: 0.01},
			{Denom: "untrn", MinGasPrice: 0.025},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "untrn", ci.DefaultFeeToken().Denom)
}

func TestChainInfo_StateFileSuffix(t *testing.T) {
	local, err := NewChainInfo(ChainInfo{ChainID: "local-1", Kind: Local, FeeTokens: []FeeToken{{Denom: "ustake"}}})
	require.NoError(t, err)
	require.Equal(t, "_local", local.StateFileSuffix())

	main, err := NewChainInfo(ChainInfo{ChainID: "cosmoshub-4", Kind: Mainnet, FeeTokens: []FeeToken{{Denom: "uatom"}}})
	require.NoError(t, err)
	require.Equal(t, "", main.StateFileSuffix())
}
