package interchain

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/b-harvest/cw-orch-go/pkg/cworch/environment"
	"github.com/b-harvest/cw-orch-go/pkg/cworch/querier"
)

// defaultChannelPollAttempts/defaultChannelPollInterval bound channel
// handshake discovery (spec.md §4.6 "Polling policy": up to 5 attempts,
// 10s apart).
const (
	defaultChannelPollAttempts = 5
	defaultChannelPollInterval = 10 * time.Second
)

// Order mirrors ibc-go's channel ordering without pulling in its proto
// package at this interface boundary.
type Order int

const (
	OrderUnordered Order = iota
	OrderOrdered
)

// ChannelCreator is the external collaborator that actually constructs an
// IBC channel (spec.md §6 "Collaborator contracts"). The repository ships
// no implementation of its own — an external relayer or a
// manual-confirmation prompt is expected to satisfy this, grounded on
// cw-orch's InterchainInfrastructure.hermes field.
type ChannelCreator interface {
	CreateChannel(ctx context.Context, srcChainID, dstChainID, srcPort, dstPort, version string, order Order) (connectionID string, err error)
}

// ContractParty names one side of a channel handshake by its wasm port
// ("wasm.{contract_address}") and the chain it lives on.
type ContractParty struct {
	ChainID string
	Address string
}

func (p ContractParty) wasmPort() string { return fmt.Sprintf("wasm.%s", p.Address) }

// CreateHermesChannel delegates channel construction to creator, then
// polls partyA's chain for the channel_open_ack transaction and partyB's
// chain for the channel_open_confirm transaction (events bearing the
// expected port-ids and connection-id, with a hash different from the one
// seen before the call), and finally traces any packets those two
// transactions spawned through WaitIBC (spec.md §4.6 "Channel creation
// tracing"). The channel_open_init and channel_open_try transactions are
// not searched for.
func (e *InterchainEnv) CreateHermesChannel(ctx context.Context, creator ChannelCreator, connectionID, channelVersion string, partyA, partyB ContractParty, order Order) error {
	endpointA, err := e.endpoint(partyA.ChainID)
	if err != nil {
		return err
	}
	endpointB, err := e.endpoint(partyB.ChainID)
	if err != nil {
		return err
	}

	ackEventsA := []querier.EventPredicate{
		{Type: "channel_open_ack", Attr: "port_id", Value: partyA.wasmPort()},
		{Type: "channel_open_ack", Attr: "counterparty_port_id", Value: partyB.wasmPort()},
		{Type: "channel_open_ack", Attr: "connection_id", Value: connectionID},
	}
	confirmEventsB := []querier.EventPredicate{
		{Type: "channel_open_confirm", Attr: "port_id", Value: partyB.wasmPort()},
		{Type: "channel_open_confirm", Attr: "counterparty_port_id", Value: partyA.wasmPort()},
		{Type: "channel_open_confirm", Attr: "connection_id", Value: connectionID},
	}

	baselineA := lastTxHash(ctx, endpointA.node, ackEventsA)
	baselineB := lastTxHash(ctx, endpointB.node, confirmEventsB)

	if _, err := creator.CreateChannel(ctx, partyA.ChainID, partyB.ChainID, partyA.wasmPort(), partyB.wasmPort(), channelVersion, order); err != nil {
		return fmt.Errorf("interchain: create channel: %w", err)
	}

	ackTxA, err := e.findNewTx(ctx, endpointA.node, ackEventsA, baselineA, partyA.ChainID, connectionID)
	if err != nil {
		return err
	}
	confirmTxB, err := e.findNewTx(ctx, endpointB.node, confirmEventsB, baselineB, partyB.ChainID, connectionID)
	if err != nil {
		return err
	}

	if _, err := e.WaitIBC(ctx, partyA.ChainID, ackTxA.Tx); err != nil {
		return fmt.Errorf("interchain: trace packets from channel handshake on %s: %w", partyA.ChainID, err)
	}
	if _, err := e.WaitIBC(ctx, partyB.ChainID, confirmTxB.Tx); err != nil {
		return fmt.Errorf("interchain: trace packets from channel handshake on %s: %w", partyB.ChainID, err)
	}
	return nil
}

// lastTxHash captures the current latest match (if any) as the baseline a
// post-handshake search must beat, mirroring
// infrastructure.rs::create_hermes_channel's "last known hash" capture.
func lastTxHash(ctx context.Context, finder TxFinder, predicates []querier.EventPredicate) string {
	results, err := finder.FindTxByEvents(ctx, predicates, querier.OrderDesc, 1)
	if err != nil || len(results) == 0 {
		return ""
	}
	return results[0].TxHash
}

func (e *InterchainEnv) channelPollAttempts() int {
	if e.ChannelPollAttempts > 0 {
		return e.ChannelPollAttempts
	}
	return defaultChannelPollAttempts
}

func (e *InterchainEnv) channelPollInterval() time.Duration {
	if e.ChannelPollInterval > 0 {
		return e.ChannelPollInterval
	}
	return defaultChannelPollInterval
}

// findNewTx polls for a transaction matching predicates whose hash differs
// from baseline, up to channelPollAttempts tries (spec.md §4.6 "Polling
// policy").
func (e *InterchainEnv) findNewTx(ctx context.Context, finder TxFinder, predicates []querier.EventPredicate, baseline, chainID, connectionID string) (*querier.TxSearchResult, error) {
	var found *querier.TxSearchResult

	bo := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewConstantBackOff(e.channelPollInterval()), e.channelPollAttempts()-1), ctx)

	retries := 0
	err := backoff.Retry(func() error {
		retries++
		results, err := finder.FindTxByEvents(ctx, predicates, querier.OrderDesc, 1)
		if err != nil {
			return err
		}
		if len(results) == 0 || results[0].TxHash == baseline {
			return fmt.Errorf("interchain: no new channel-handshake tx yet")
		}
		found = &results[0]
		return nil
	}, bo)
	if err != nil || found == nil {
		return nil, &environment.ChannelCreationEventsNotFoundError{ChainID: chainID, ConnectionID: connectionID, Retries: retries}
	}
	return found, nil
}
