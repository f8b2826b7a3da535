package environment

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/b-harvest/cw-orch-go/pkg/cworch/querier"
	"github.com/b-harvest/cw-orch-go/pkg/cworch/state"
)

// ForkedSim is the generic forked-simulator Environment backend: it snapshots
// a live chain's current block height/time and a seed set of account
// balances, then continues executing entirely in-process against that
// snapshot via the same contract-registry machinery as MockSim.
//
// The upstream project's forked backends (osmosis-test-tube,
// injective-test-tube) bind to chain-specific Rust FFI crates with no Go
// equivalent; this type implements only the generic contract every forked
// backend shares — fork-from-live-state, then simulate locally.
type ForkedSim struct {
	*MockSim

	forkedChainID string
	forkedHeight  int64
}

// ForkSeedAccount names an address whose live balance should be copied into
// the fork at construction time.
type ForkSeedAccount struct {
	Address string
	Denom   string
}

// NewForkedSim dials no new state itself; it reads the current block head
// and the requested seed accounts from conn, then hands control to an
// embedded MockSim.
func NewForkedSim(ctx context.Context, chainInfo *ChainInfo, store state.Store, senderAddr string, conn *grpc.ClientConn, seedAccounts []ForkSeedAccount) (*ForkedSim, error) {
	node := querier.NewNode(conn)
	head, err := node.LatestBlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("environment: fork: read chain head: %w", err)
	}

	sim := NewMockSim(chainInfo, store, senderAddr)
	sim.height = head.Height
	sim.blockTime = head.Time

	bank := querier.NewBank(conn)
	for _, seed := range seedAccounts {
		coins, err := bank.Balance(ctx, seed.Address, seed.Denom)
		if err != nil {
			return nil, fmt.Errorf("environment: fork: seed balance for %s: %w", seed.Address, err)
		}
		funds := make([]Coin, 0, len(coins))
		for _, c := range coins {
			funds = append(funds, Coin{Denom: c.Denom, Amount: c.Amount})
		}
		if err := sim.SetBalance(seed.Address, funds); err != nil {
			return nil, err
		}
	}

	return &ForkedSim{MockSim: sim, forkedChainID: head.ChainID, forkedHeight: head.Height}, nil
}

// ForkedFrom reports the live chain-id and height this simulation branched
// from.
func (f *ForkedSim) ForkedFrom() (chainID string, height int64) {
	return f.forkedChainID, f.forkedHeight
}

var _ Environment = (*ForkedSim)(nil)
