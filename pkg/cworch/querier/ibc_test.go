package querier

import (
	"context"
	"testing"

	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	connectiontypes "github.com/cosmos/ibc-go/v10/modules/core/03-connection/types"
	ibctm "github.com/cosmos/ibc-go/v10/modules/light-clients/07-tendermint"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

// fakeConnectionClient overrides only the methods OpenConnections and
// ConnectionClient exercise; any other call panics on the embedded nil
// interface, which is fine since this package's tests never reach them.
type fakeConnectionClient struct {
	connectiontypes.QueryClient
	connections map[string]*connectiontypes.IdentifiedConnection
	clientChain map[string]string // connection id -> client chain id
}

func (f *fakeConnectionClient) Connections(ctx context.Context, _ *connectiontypes.QueryConnectionsRequest, _ ...grpc.CallOption) (*connectiontypes.QueryConnectionsResponse, error) {
	out := make([]*connectiontypes.IdentifiedConnection, 0, len(f.connections))
	for _, c := range f.connections {
		out = append(out, c)
	}
	return &connectiontypes.QueryConnectionsResponse{Connections: out}, nil
}

func (f *fakeConnectionClient) ConnectionClientState(ctx context.Context, req *connectiontypes.QueryConnectionClientStateRequest, _ ...grpc.CallOption) (*connectiontypes.QueryConnectionClientStateResponse, error) {
	chainID := f.clientChain[req.ConnectionId]
	clientState := &ibctm.ClientState{ChainId: chainID}
	any, err := codectypes.NewAnyWithValue(clientState)
	if err != nil {
		return nil, err
	}
	return &connectiontypes.QueryConnectionClientStateResponse{
		IdentifiedClientState: &connectiontypes.IdentifiedClientState{
			ClientId:    "07-tendermint-0",
			ClientState: any,
		},
	}, nil
}

func TestOpenConnections_FiltersByStateThenCounterpartyChainID(t *testing.T) {
	ibc := &Ibc{
		connection: &fakeConnectionClient{
			connections: map[string]*connectiontypes.IdentifiedConnection{
				"connection-0": {Id: "connection-0", State: connectiontypes.OPEN},
				"connection-1": {Id: "connection-1", State: connectiontypes.INIT},
				"connection-2": {Id: "connection-2", State: connectiontypes.OPEN},
			},
			clientChain: map[string]string{
				"connection-0": "osmosis-1",
				"connection-2": "juno-1",
			},
		},
	}

	open, err := ibc.OpenConnections(context.Background(), "osmosis-1")
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, "connection-0", open[0].Id)
}

func TestOpenConnections_NoMatch(t *testing.T) {
	ibc := &Ibc{
		connection: &fakeConnectionClient{
			connections: map[string]*connectiontypes.IdentifiedConnection{
				"connection-0": {Id: "connection-0", State: connectiontypes.OPEN},
			},
			clientChain: map[string]string{"connection-0": "osmosis-1"},
		},
	}

	open, err := ibc.OpenConnections(context.Background(), "cosmoshub-4")
	require.NoError(t, err)
	require.Empty(t, open)
}

func TestConnectionClient_DecodesTendermintClientState(t *testing.T) {
	ibc := &Ibc{
		connection: &fakeConnectionClient{
			clientChain: map[string]string{"connection-0": "neutron-1"},
		},
	}

	cs, err := ibc.ConnectionClient(context.Background(), "connection-0")
	require.NoError(t, err)
	require.Equal(t, "neutron-1", cs.ChainId)
}
