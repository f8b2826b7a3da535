package interchain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/b-harvest/cw-orch-go/pkg/cworch/querier"
)

// ErrChainNotRegistered is returned when an operation names a chain-id the
// InterchainEnv has no endpoint for.
var ErrChainNotRegistered = errors.New("interchain: chain not registered")

// TxFinder is the subset of querier.Node the tracer needs. A live chain
// registers its *querier.Node directly; tests register a fake implementing
// just this method, avoiding the need to stand up a gRPC server.
type TxFinder interface {
	FindTxByEvents(ctx context.Context, events []querier.EventPredicate, order querier.OrderBy, limit uint64) ([]querier.TxSearchResult, error)
}

// ConnectionResolver is the subset of querier.Ibc the tracer needs: resolve
// a connection-id to its counterparty chain-id.
type ConnectionResolver interface {
	ConnectionClient(ctx context.Context, connectionID string) (counterpartyChainID string, err error)
}

// ChannelResolver resolves a channel's counterparty port/channel-id, used
// to build the other side of an InterchainChannel once a packet's
// connection-id has told us which chain it lands on.
type ChannelResolver interface {
	CounterpartyChannel(ctx context.Context, portID, channelID string) (counterpartyPort, counterpartyChannel string, err error)
}

// IbcResolver is the combined Ibc-querier seam the tracer depends on.
type IbcResolver interface {
	ConnectionResolver
	ChannelResolver
}

// chainEndpoint bundles the two read surfaces the tracer drives per chain.
type chainEndpoint struct {
	node TxFinder
	ibc  IbcResolver
}

// InterchainEnv registers the chains a packet trace may traverse, keyed by
// chain-id, grounded on cw-orch's interchain-daemon PacketInspector
// (registered_chains: HashMap<NetworkId, Channel>) but holding query
// surfaces directly instead of raw gRPC channels, since this module never
// needs anything but Node/Ibc reads.
type InterchainEnv struct {
	mu    sync.RWMutex
	chain map[string]chainEndpoint

	// PacketPollAttempts/PacketPollInterval override the default packet
	// discovery polling bound (spec.md §4.6 "a configurable bound for
	// packet discovery"); zero means use the package default.
	PacketPollAttempts int
	PacketPollInterval time.Duration

	// ChannelPollAttempts/ChannelPollInterval override the default channel
	// handshake discovery polling bound; zero means use the package default.
	ChannelPollAttempts int
	ChannelPollInterval time.Duration
}

// NewInterchainEnv constructs an empty registry; chains are added with
// RegisterChain before tracing.
func NewInterchainEnv() *InterchainEnv {
	return &InterchainEnv{chain: make(map[string]chainEndpoint)}
}

// ibcAdapter adapts *querier.Ibc's richer return types (a full tendermint
// client state, a whole channeltypes.Channel) to this package's narrower
// IbcResolver seam, keeping ibc-go's proto types out of this package.
type ibcAdapter struct {
	ibc *querier.Ibc
}

func (a ibcAdapter) ConnectionClient(ctx context.Context, connectionID string) (string, error) {
	clientState, err := a.ibc.ConnectionClient(ctx, connectionID)
	if err != nil {
		return "", err
	}
	return clientState.ChainId, nil
}

func (a ibcAdapter) CounterpartyChannel(ctx context.Context, portID, channelID string) (string, string, error) {
	channel, err := a.ibc.Channel(ctx, portID, channelID)
	if err != nil {
		return "", "", err
	}
	if channel.Counterparty.PortId == "" && channel.Counterparty.ChannelId == "" {
		return "", "", fmt.Errorf("interchain: channel %s/%s has no counterparty recorded", portID, channelID)
	}
	return channel.Counterparty.PortId, channel.Counterparty.ChannelId, nil
}

// RegisterChain binds chainID to the Node/Ibc queriers that read it.
func (e *InterchainEnv) RegisterChain(chainID string, node *querier.Node, ibc *querier.Ibc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chain[chainID] = chainEndpoint{node: node, ibc: ibcAdapter{ibc: ibc}}
}

// RegisterFake registers test doubles implementing just the three methods
// the tracer drives (FindTxByEvents, ConnectionClient, CounterpartyChannel),
// letting tests exercise wait_ibc without a gRPC server.
func (e *InterchainEnv) RegisterFake(chainID string, node TxFinder, ibc IbcResolver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chain[chainID] = chainEndpoint{node: node, ibc: ibc}
}

func (e *InterchainEnv) endpoint(chainID string) (chainEndpoint, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ep, ok := e.chain[chainID]
	if !ok {
		return chainEndpoint{}, fmt.Errorf("%w: %q", ErrChainNotRegistered, chainID)
	}
	return ep, nil
}
