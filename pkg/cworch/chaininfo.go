package cworch

import "github.com/b-harvest/cw-orch-go/pkg/cworch/environment"

// ChainInfo and its supporting types live in package environment so the
// environment backends can construct them without importing this package;
// these aliases are the surface most callers of the handle API use.
type (
	NetworkKind = environment.NetworkKind
	FeeToken    = environment.FeeToken
	ChainInfo   = environment.ChainInfo
)

const (
	Local   = environment.Local
	Testnet = environment.Testnet
	Mainnet = environment.Mainnet
)

// NewChainInfo validates and canonicalizes a ChainInfo.
func NewChainInfo(ci ChainInfo) (*ChainInfo, error) { return environment.NewChainInfo(ci) }
