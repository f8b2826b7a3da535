package querier

import (
	"context"
	"fmt"

	clienttypes "github.com/cosmos/ibc-go/v10/modules/core/02-client/types"
	connectiontypes "github.com/cosmos/ibc-go/v10/modules/core/03-connection/types"
	channeltypes "github.com/cosmos/ibc-go/v10/modules/core/04-channel/types"
	ibctm "github.com/cosmos/ibc-go/v10/modules/light-clients/07-tendermint"
	transfertypes "github.com/cosmos/ibc-go/v10/modules/apps/transfer/types"
	"google.golang.org/grpc"
)

// ErrCounterpartyClientNotTendermint is returned by OpenConnections when a
// connection's client state does not decode as a tendermint light client,
// mirroring DaemonError::ibc_err in queriers/ibc.rs's connection_client.
var ErrCounterpartyClientNotTendermint = fmt.Errorf("querier: counterparty client is not a tendermint light client")

// Ibc is the read-only capability over the IBC core and transfer modules
// (spec.md §4.2), grounded on cw-orch-daemon's queriers/ibc.rs.
type Ibc struct {
	runtime    *Runtime
	client     clienttypes.QueryClient
	connection connectiontypes.QueryClient
	channel    channeltypes.QueryClient
	transfer   transfertypes.QueryClient
}

// NewIbc constructs an async-only Ibc querier.
func NewIbc(conn *grpc.ClientConn) *Ibc {
	return &Ibc{
		client:     clienttypes.NewQueryClient(conn),
		connection: connectiontypes.NewQueryClient(conn),
		channel:    channeltypes.NewQueryClient(conn),
		transfer:   transfertypes.NewQueryClient(conn),
	}
}

// NewIbcSync additionally enables blocking methods via rt.
func NewIbcSync(conn *grpc.ClientConn, rt *Runtime) *Ibc {
	ibc := NewIbc(conn)
	ibc.runtime = rt
	return ibc
}

// --- Transfer queries ---

// DenomTrace returns the trace path for a denom hash.
func (q *Ibc) DenomTrace(ctx context.Context, hash string) (transfertypes.DenomTrace, error) {
	resp, err := q.transfer.DenomTrace(ctx, &transfertypes.QueryDenomTraceRequest{Hash: hash})
	if err != nil {
		return transfertypes.DenomTrace{}, err
	}
	if resp.DenomTrace == nil {
		return transfertypes.DenomTrace{}, fmt.Errorf("querier: denom trace for %q not found", hash)
	}
	return *resp.DenomTrace, nil
}

// DenomTraceBlocking is the sync-over-async sibling of DenomTrace.
func (q *Ibc) DenomTraceBlocking(hash string) (transfertypes.DenomTrace, error) {
	return callBlocking(q.runtime, func(ctx context.Context) (transfertypes.DenomTrace, error) {
		return q.DenomTrace(ctx, hash)
	})
}

// --- Client queries ---

// Clients lists every IBC light client registered on the chain.
func (q *Ibc) Clients(ctx context.Context) ([]clienttypes.IdentifiedClientState, error) {
	resp, err := q.client.ClientStates(ctx, &clienttypes.QueryClientStatesRequest{})
	if err != nil {
		return nil, err
	}
	return resp.ClientStates, nil
}

// ClientsBlocking is the sync-over-async sibling of Clients.
func (q *Ibc) ClientsBlocking() ([]clienttypes.IdentifiedClientState, error) {
	return callBlocking(q.runtime, q.Clients)
}

// ClientState returns the raw (Any-wrapped) client state for clientID.
func (q *Ibc) ClientState(ctx context.Context, clientID string) (*clienttypes.QueryClientStateResponse, error) {
	return q.client.ClientState(ctx, &clienttypes.QueryClientStateRequest{ClientId: clientID})
}

// ClientStateBlocking is the sync-over-async sibling of ClientState.
func (q *Ibc) ClientStateBlocking(clientID string) (*clienttypes.QueryClientStateResponse, error) {
	return callBlocking(q.runtime, func(ctx context.Context) (*clienttypes.QueryClientStateResponse, error) {
		return q.ClientState(ctx, clientID)
	})
}

// ConsensusStates lists the consensus states a client has stored.
func (q *Ibc) ConsensusStates(ctx context.Context, clientID string) ([]clienttypes.ConsensusStateWithHeight, error) {
	resp, err := q.client.ConsensusStates(ctx, &clienttypes.QueryConsensusStatesRequest{ClientId: clientID})
	if err != nil {
		return nil, err
	}
	return resp.ConsensusStates, nil
}

// ConsensusStatesBlocking is the sync-over-async sibling of ConsensusStates.
func (q *Ibc) ConsensusStatesBlocking(clientID string) ([]clienttypes.ConsensusStateWithHeight, error) {
	return callBlocking(q.runtime, func(ctx context.Context) ([]clienttypes.ConsensusStateWithHeight, error) {
		return q.ConsensusStates(ctx, clientID)
	})
}

// ClientParams returns the chain's global IBC client module parameters.
func (q *Ibc) ClientParams(ctx context.Context) (clienttypes.Params, error) {
	resp, err := q.client.ClientParams(ctx, &clienttypes.QueryClientParamsRequest{})
	if err != nil {
		return clienttypes.Params{}, err
	}
	return *resp.Params, nil
}

// ClientParamsBlocking is the sync-over-async sibling of ClientParams.
func (q *Ibc) ClientParamsBlocking() (clienttypes.Params, error) {
	return callBlocking(q.runtime, q.ClientParams)
}

// --- Connection queries ---

// Connections lists every IBC connection on the chain.
func (q *Ibc) Connections(ctx context.Context) ([]*connectiontypes.IdentifiedConnection, error) {
	resp, err := q.connection.Connections(ctx, &connectiontypes.QueryConnectionsRequest{})
	if err != nil {
		return nil, err
	}
	return resp.Connections, nil
}

// ConnectionsBlocking is the sync-over-async sibling of Connections.
func (q *Ibc) ConnectionsBlocking() ([]*connectiontypes.IdentifiedConnection, error) {
	return callBlocking(q.runtime, q.Connections)
}

// OpenConnections returns the open connections whose counterparty client
// reports counterpartyChainID, mirroring ibc.rs's open_connections: list all
// connections, keep State_OPEN, then resolve each survivor's client and
// filter on its reported chain id (spec.md §4.2).
func (q *Ibc) OpenConnections(ctx context.Context, counterpartyChainID string) ([]*connectiontypes.IdentifiedConnection, error) {
	conns, err := q.Connections(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*connectiontypes.IdentifiedConnection, 0, len(conns))
	for _, c := range conns {
		if c.State != connectiontypes.OPEN {
			continue
		}
		clientState, err := q.ConnectionClient(ctx, c.Id)
		if err != nil {
			return nil, err
		}
		if clientState.ChainId == counterpartyChainID {
			out = append(out, c)
		}
	}
	return out, nil
}

// OpenConnectionsBlocking is the sync-over-async sibling of OpenConnections.
func (q *Ibc) OpenConnectionsBlocking(counterpartyChainID string) ([]*connectiontypes.IdentifiedConnection, error) {
	return callBlocking(q.runtime, func(ctx context.Context) ([]*connectiontypes.IdentifiedConnection, error) {
		return q.OpenConnections(ctx, counterpartyChainID)
	})
}

// ClientConnections returns the connection ids using clientID.
func (q *Ibc) ClientConnections(ctx context.Context, clientID string) ([]string, error) {
	resp, err := q.connection.ClientConnections(ctx, &connectiontypes.QueryClientConnectionsRequest{ClientId: clientID})
	if err != nil {
		return nil, err
	}
	return resp.ConnectionPaths, nil
}

// ClientConnectionsBlocking is the sync-over-async sibling of ClientConnections.
func (q *Ibc) ClientConnectionsBlocking(clientID string) ([]string, error) {
	return callBlocking(q.runtime, func(ctx context.Context) ([]string, error) {
		return q.ClientConnections(ctx, clientID)
	})
}

// ConnectionClient returns the decoded tendermint client state backing
// connectionID, failing with ErrCounterpartyClientNotTendermint if the
// client is of another type (spec.md §4.2; cw-orch-daemon's connection_client).
func (q *Ibc) ConnectionClient(ctx context.Context, connectionID string) (*ibctm.ClientState, error) {
	resp, err := q.connection.ConnectionClientState(ctx, &connectiontypes.QueryConnectionClientStateRequest{ConnectionId: connectionID})
	if err != nil {
		return nil, err
	}
	if resp.IdentifiedClientState == nil {
		return nil, fmt.Errorf("querier: no client identified for connection %s", connectionID)
	}
	clientState, ok := resp.IdentifiedClientState.ClientState.GetCachedValue().(*ibctm.ClientState)
	if !ok {
		var decoded ibctm.ClientState
		if err := decoded.Unmarshal(resp.IdentifiedClientState.ClientState.Value); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrCounterpartyClientNotTendermint, err)
		}
		clientState = &decoded
	}
	return clientState, nil
}

// ConnectionClientBlocking is the sync-over-async sibling of ConnectionClient.
func (q *Ibc) ConnectionClientBlocking(connectionID string) (*ibctm.ClientState, error) {
	return callBlocking(q.runtime, func(ctx context.Context) (*ibctm.ClientState, error) {
		return q.ConnectionClient(ctx, connectionID)
	})
}

// --- Channel queries ---

// Channel returns the channel identified by (portID, channelID).
func (q *Ibc) Channel(ctx context.Context, portID, channelID string) (*channeltypes.Channel, error) {
	resp, err := q.channel.Channel(ctx, &channeltypes.QueryChannelRequest{PortId: portID, ChannelId: channelID})
	if err != nil {
		return nil, err
	}
	if resp.Channel == nil {
		return nil, fmt.Errorf("querier: channel %s/%s not found", portID, channelID)
	}
	return resp.Channel, nil
}

// ChannelBlocking is the sync-over-async sibling of Channel.
func (q *Ibc) ChannelBlocking(portID, channelID string) (*channeltypes.Channel, error) {
	return callBlocking(q.runtime, func(ctx context.Context) (*channeltypes.Channel, error) {
		return q.Channel(ctx, portID, channelID)
	})
}

// ConnectionChannels lists every channel opened over connectionID.
func (q *Ibc) ConnectionChannels(ctx context.Context, connectionID string) ([]*channeltypes.IdentifiedChannel, error) {
	resp, err := q.channel.ConnectionChannels(ctx, &channeltypes.QueryConnectionChannelsRequest{Connection: connectionID})
	if err != nil {
		return nil, err
	}
	return resp.Channels, nil
}

// ConnectionChannelsBlocking is the sync-over-async sibling of ConnectionChannels.
func (q *Ibc) ConnectionChannelsBlocking(connectionID string) ([]*channeltypes.IdentifiedChannel, error) {
	return callBlocking(q.runtime, func(ctx context.Context) ([]*channeltypes.IdentifiedChannel, error) {
		return q.ConnectionChannels(ctx, connectionID)
	})
}

// ChannelClientState returns the client state backing a channel's connection.
func (q *Ibc) ChannelClientState(ctx context.Context, portID, channelID string) (*clienttypes.IdentifiedClientState, error) {
	resp, err := q.channel.ChannelClientState(ctx, &channeltypes.QueryChannelClientStateRequest{PortId: portID, ChannelId: channelID})
	if err != nil {
		return nil, err
	}
	if resp.IdentifiedClientState == nil {
		return nil, fmt.Errorf("querier: no client identified for channel %s/%s", portID, channelID)
	}
	return resp.IdentifiedClientState, nil
}

// ChannelClientStateBlocking is the sync-over-async sibling of ChannelClientState.
func (q *Ibc) ChannelClientStateBlocking(portID, channelID string) (*clienttypes.IdentifiedClientState, error) {
	return callBlocking(q.runtime, func(ctx context.Context) (*clienttypes.IdentifiedClientState, error) {
		return q.ChannelClientState(ctx, portID, channelID)
	})
}

// --- Packet queries ---

// PacketCommitment returns the commitment bytes for (portID, channelID, sequence).
func (q *Ibc) PacketCommitment(ctx context.Context, portID, channelID string, sequence uint64) ([]byte, error) {
	resp, err := q.channel.PacketCommitment(ctx, &channeltypes.QueryPacketCommitmentRequest{
		PortId: portID, ChannelId: channelID, Sequence: sequence,
	})
	if err != nil {
		return nil, err
	}
	return resp.Commitment, nil
}

// PacketCommitmentBlocking is the sync-over-async sibling of PacketCommitment.
func (q *Ibc) PacketCommitmentBlocking(portID, channelID string, sequence uint64) ([]byte, error) {
	return callBlocking(q.runtime, func(ctx context.Context) ([]byte, error) {
		return q.PacketCommitment(ctx, portID, channelID, sequence)
	})
}

// PacketCommitments lists every outstanding packet commitment on a channel.
func (q *Ibc) PacketCommitments(ctx context.Context, portID, channelID string) ([]*channeltypes.PacketState, error) {
	resp, err := q.channel.PacketCommitments(ctx, &channeltypes.QueryPacketCommitmentsRequest{PortId: portID, ChannelId: channelID})
	if err != nil {
		return nil, err
	}
	return resp.Commitments, nil
}

// PacketCommitmentsBlocking is the sync-over-async sibling of PacketCommitments.
func (q *Ibc) PacketCommitmentsBlocking(portID, channelID string) ([]*channeltypes.PacketState, error) {
	return callBlocking(q.runtime, func(ctx context.Context) ([]*channeltypes.PacketState, error) {
		return q.PacketCommitments(ctx, portID, channelID)
	})
}

// PacketReceipt reports whether the packet has been received on this chain.
func (q *Ibc) PacketReceipt(ctx context.Context, portID, channelID string, sequence uint64) (bool, error) {
	resp, err := q.channel.PacketReceipt(ctx, &channeltypes.QueryPacketReceiptRequest{
		PortId: portID, ChannelId: channelID, Sequence: sequence,
	})
	if err != nil {
		return false, err
	}
	return resp.Received, nil
}

// PacketReceiptBlocking is the sync-over-async sibling of PacketReceipt.
func (q *Ibc) PacketReceiptBlocking(portID, channelID string, sequence uint64) (bool, error) {
	return callBlocking(q.runtime, func(ctx context.Context) (bool, error) {
		return q.PacketReceipt(ctx, portID, channelID, sequence)
	})
}

// PacketAcknowledgement returns the acknowledgement bytes written for
// (portID, channelID, sequence).
func (q *Ibc) PacketAcknowledgement(ctx context.Context, portID, channelID string, sequence uint64) ([]byte, error) {
	resp, err := q.channel.PacketAcknowledgement(ctx, &channeltypes.QueryPacketAcknowledgementRequest{
		PortId: portID, ChannelId: channelID, Sequence: sequence,
	})
	if err != nil {
		return nil, err
	}
	return resp.Acknowledgement, nil
}

// PacketAcknowledgementBlocking is the sync-over-async sibling of PacketAcknowledgement.
func (q *Ibc) PacketAcknowledgementBlocking(portID, channelID string, sequence uint64) ([]byte, error) {
	return callBlocking(q.runtime, func(ctx context.Context) ([]byte, error) {
		return q.PacketAcknowledgement(ctx, portID, channelID, sequence)
	})
}

// PacketAcknowledgements lists the acknowledgements written for the given
// commitment sequences (an empty slice requests every acknowledgement).
func (q *Ibc) PacketAcknowledgements(ctx context.Context, portID, channelID string, commitmentSequences []uint64) ([]*channeltypes.PacketState, error) {
	resp, err := q.channel.PacketAcknowledgements(ctx, &channeltypes.QueryPacketAcknowledgementsRequest{
		PortId: portID, ChannelId: channelID, PacketCommitmentSequences: commitmentSequences,
	})
	if err != nil {
		return nil, err
	}
	return resp.Acknowledgements, nil
}

// PacketAcknowledgementsBlocking is the sync-over-async sibling of PacketAcknowledgements.
func (q *Ibc) PacketAcknowledgementsBlocking(portID, channelID string, commitmentSequences []uint64) ([]*channeltypes.PacketState, error) {
	return callBlocking(q.runtime, func(ctx context.Context) ([]*channeltypes.PacketState, error) {
		return q.PacketAcknowledgements(ctx, portID, channelID, commitmentSequences)
	})
}

// UnreceivedPackets filters commitmentSequences down to the ones the
// counterparty has not yet received (spec.md §4.2).
func (q *Ibc) UnreceivedPackets(ctx context.Context, portID, channelID string, commitmentSequences []uint64) ([]uint64, error) {
	resp, err := q.channel.UnreceivedPackets(ctx, &channeltypes.QueryUnreceivedPacketsRequest{
		PortId: portID, ChannelId: channelID, PacketCommitmentSequences: commitmentSequences,
	})
	if err != nil {
		return nil, err
	}
	return resp.Sequences, nil
}

// UnreceivedPacketsBlocking is the sync-over-async sibling of UnreceivedPackets.
func (q *Ibc) UnreceivedPacketsBlocking(portID, channelID string, commitmentSequences []uint64) ([]uint64, error) {
	return callBlocking(q.runtime, func(ctx context.Context) ([]uint64, error) {
		return q.UnreceivedPackets(ctx, portID, channelID, commitmentSequences)
	})
}

// UnreceivedAcks filters ackSequences down to the ones whose acknowledgement
// has not yet been received back on the sending chain.
func (q *Ibc) UnreceivedAcks(ctx context.Context, portID, channelID string, ackSequences []uint64) ([]uint64, error) {
	resp, err := q.channel.UnreceivedAcks(ctx, &channeltypes.QueryUnreceivedAcksRequest{
		PortId: portID, ChannelId: channelID, PacketAckSequences: ackSequences,
	})
	if err != nil {
		return nil, err
	}
	return resp.Sequences, nil
}

// UnreceivedAcksBlocking is the sync-over-async sibling of UnreceivedAcks.
func (q *Ibc) UnreceivedAcksBlocking(portID, channelID string, ackSequences []uint64) ([]uint64, error) {
	return callBlocking(q.runtime, func(ctx context.Context) ([]uint64, error) {
		return q.UnreceivedAcks(ctx, portID, channelID, ackSequences)
	})
}

// NextSequenceReceive returns the next expected receive sequence for a channel.
func (q *Ibc) NextSequenceReceive(ctx context.Context, portID, channelID string) (uint64, error) {
	resp, err := q.channel.NextSequenceReceive(ctx, &channeltypes.QueryNextSequenceReceiveRequest{
		PortId: portID, ChannelId: channelID,
	})
	if err != nil {
		return 0, err
	}
	return resp.NextSequenceReceive, nil
}

// NextSequenceReceiveBlocking is the sync-over-async sibling of NextSequenceReceive.
func (q *Ibc) NextSequenceReceiveBlocking(portID, channelID string) (uint64, error) {
	return callBlocking(q.runtime, func(ctx context.Context) (uint64, error) {
		return q.NextSequenceReceive(ctx, portID, channelID)
	})
}
