package interchain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/b-harvest/cw-orch-go/pkg/cworch/environment"
	"github.com/b-harvest/cw-orch-go/pkg/cworch/querier"
)

// fakeChannelCreator stands in for an external relayer: invoking it is
// what "creates" the channel, so tests arrange for the handshake
// transactions to appear in the registered fakes only once this is called
// (mirroring what a real relayer would cause to happen on-chain).
type fakeChannelCreator struct {
	called  bool
	onCreate func()
}

func (f *fakeChannelCreator) CreateChannel(_ context.Context, srcChainID, dstChainID, srcPort, dstPort, version string, order Order) (string, error) {
	f.called = true
	if f.onCreate != nil {
		f.onCreate()
	}
	return "connection-0", nil
}

func TestCreateHermesChannel_DiscoversNewHandshakeTxs(t *testing.T) {
	env := fastPollingEnv()

	nodeA := newFakeTxFinder()
	nodeB := newFakeTxFinder()
	env.RegisterFake("a-1", nodeA, fakeIbc{dstChainID: "b-1"})
	env.RegisterFake("b-1", nodeB, fakeIbc{dstChainID: "a-1"})

	partyA := ContractParty{ChainID: "a-1", Address: "cosmos1contracta"}
	partyB := ContractParty{ChainID: "b-1", Address: "cosmos1contractb"}

	ackTx := querier.TxSearchResult{TxHash: "ACK", Tx: &querier.TxResult{Events: []querier.TxEvent{
		{Type: "channel_open_ack"},
	}}}
	confirmTx := querier.TxSearchResult{TxHash: "CONFIRM", Tx: &querier.TxResult{Events: []querier.TxEvent{
		{Type: "channel_open_confirm"},
	}}}

	creator := &fakeChannelCreator{onCreate: func() {
		nodeA.set("channel_open_ack", ackTx)
		nodeB.set("channel_open_confirm", confirmTx)
	}}

	err := env.CreateHermesChannel(context.Background(), creator, "connection-0", "ics20-1", partyA, partyB, OrderUnordered)
	require.NoError(t, err)
	require.True(t, creator.called)
}

func TestCreateHermesChannel_NoNewTxFailsWithRetryBound(t *testing.T) {
	env := fastPollingEnv()

	nodeA := newFakeTxFinder()
	nodeB := newFakeTxFinder()
	env.RegisterFake("a-1", nodeA, fakeIbc{dstChainID: "b-1"})
	env.RegisterFake("b-1", nodeB, fakeIbc{dstChainID: "a-1"})

	partyA := ContractParty{ChainID: "a-1", Address: "cosmos1contracta"}
	partyB := ContractParty{ChainID: "b-1", Address: "cosmos1contractb"}

	creator := &fakeChannelCreator{}

	err := env.CreateHermesChannel(context.Background(), creator, "connection-0", "ics20-1", partyA, partyB, OrderUnordered)
	require.Error(t, err)
	var notFound *environment.ChannelCreationEventsNotFoundError
	require.ErrorAs(t, err, &notFound)
}
