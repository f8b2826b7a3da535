package environment

import (
	"fmt"
	"sort"
)

// NetworkKind classifies a chain's deployment tier. Local chains get a
// "_local" suffix on their state-file path so ephemeral data never
// contaminates real-network state.
type NetworkKind string

const (
	Local   NetworkKind = "local"
	Testnet NetworkKind = "testnet"
	Mainnet NetworkKind = "mainnet"
)

// FeeToken is one denom a chain accepts as gas fee, with its minimum gas
// price.
type FeeToken struct {
	Denom       string
	MinGasPrice float64
}

// ChainInfo is an immutable per-chain descriptor.
type ChainInfo struct {
	ChainID        string
	ChainName      string
	Kind           NetworkKind
	Bech32Prefix   string
	Slip44CoinType uint32
	FeeTokens      []FeeToken
	GrpcURLs       []string
	LcdURL         string
	FcdURL         string
}

// NewChainInfo validates and canonicalizes a ChainInfo. FeeTokens must be
// non-empty; the shortest-denom fee token is moved to index 0, matching the
// upstream convention of treating the shortest denom as the chain's primary
// gas token (e.g. "uatom" over "ibc/XXXX...").
func NewChainInfo(ci ChainInfo) (*ChainInfo, error) {
	if len(ci.FeeTokens) == 0 {
		return nil, fmt.Errorf("environment: chain %q must declare at least one fee token", ci.ChainID)
	}

	tokens := make([]FeeToken, len(ci.FeeTokens))
	copy(tokens, ci.FeeTokens)
	sort.SliceStable(tokens, func(i, j int) bool {
		return len(tokens[i].Denom) < len(tokens[j].Denom)
	})
	ci.FeeTokens = tokens

	out := ci
	return &out, nil
}

// DefaultFeeToken returns the canonicalized primary fee token (index 0).
func (c *ChainInfo) DefaultFeeToken() FeeToken {
	return c.FeeTokens[0]
}

// StateFileSuffix returns "_local" for Local chains, "" otherwise.
func (c *ChainInfo) StateFileSuffix() string {
	if c.Kind == Local {
		return "_local"
	}
	return ""
}
