package interchain

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/b-harvest/cw-orch-go/pkg/cworch/querier"
)

// fakeTxFinder answers FindTxByEvents by the type of the first predicate,
// letting tests script one canned response (or none) per event type
// without standing up a gRPC server.
type fakeTxFinder struct {
	mu        sync.Mutex
	responses map[string][]querier.TxSearchResult
}

func newFakeTxFinder() *fakeTxFinder {
	return &fakeTxFinder{responses: make(map[string][]querier.TxSearchResult)}
}

func (f *fakeTxFinder) set(eventType string, result querier.TxSearchResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[eventType] = []querier.TxSearchResult{result}
}

func (f *fakeTxFinder) FindTxByEvents(_ context.Context, events []querier.EventPredicate, _ querier.OrderBy, limit uint64) ([]querier.TxSearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	results := f.responses[events[0].Type]
	if uint64(len(results)) > limit {
		return results[:limit], nil
	}
	return results, nil
}

type fakeIbc struct {
	dstChainID        string
	counterpartyPort  string
	counterpartyChannel string
}

func (f fakeIbc) ConnectionClient(_ context.Context, _ string) (string, error) {
	return f.dstChainID, nil
}

func (f fakeIbc) CounterpartyChannel(_ context.Context, _, _ string) (string, string, error) {
	return f.counterpartyPort, f.counterpartyChannel, nil
}

func fastPollingEnv() *InterchainEnv {
	env := NewInterchainEnv()
	env.PacketPollInterval = time.Millisecond
	env.PacketPollAttempts = 3
	env.ChannelPollInterval = time.Millisecond
	env.ChannelPollAttempts = 3
	return env
}

func txEvent(eventType string, attrs map[string]string) querier.TxEvent {
	e := querier.TxEvent{Type: eventType}
	for k, v := range attrs {
		e.Attributes = append(e.Attributes, querier.TxEventAttribute{Key: k, Value: v})
	}
	return e
}

func TestWaitIBC_NoPacketsReturnsLeafTree(t *testing.T) {
	env := fastPollingEnv()
	tx := &querier.TxResult{Events: []querier.TxEvent{{Type: "wasm"}}}

	tree, err := env.WaitIBC(context.Background(), "a-1", tx)
	require.NoError(t, err)
	require.Equal(t, "a-1", tree.Tx.ChainID)
	require.Empty(t, tree.Packets)
}

func TestWaitIBC_ChainNotRegistered(t *testing.T) {
	env := fastPollingEnv()
	tx := &querier.TxResult{Events: []querier.TxEvent{
		sendPacketEvent("connection-0", "transfer", "channel-0", "42"),
	}}

	_, err := env.WaitIBC(context.Background(), "a-1", tx)
	require.ErrorIs(t, err, ErrChainNotRegistered)
}

func TestWaitIBC_SuccessPath(t *testing.T) {
	env := fastPollingEnv()

	nodeA := newFakeTxFinder()
	nodeB := newFakeTxFinder()

	sendTx := querier.TxSearchResult{TxHash: "SEND", Tx: &querier.TxResult{Events: []querier.TxEvent{
		sendPacketEvent("connection-0", "transfer", "channel-0", "42"),
	}}}
	nodeA.set("send_packet", sendTx)

	recvTx := querier.TxSearchResult{TxHash: "RECV", Tx: &querier.TxResult{Events: []querier.TxEvent{
		txEvent("recv_packet", map[string]string{"packet_dst_port": "transfer", "packet_dst_channel": "channel-7", "packet_sequence": "42"}),
		txEvent("write_acknowledgement", map[string]string{"packet_sequence": "42", "packet_ack": "success"}),
	}}}
	nodeB.set("recv_packet", recvTx)

	ackTx := querier.TxSearchResult{TxHash: "ACK", Tx: &querier.TxResult{Events: []querier.TxEvent{
		txEvent("acknowledge_packet", map[string]string{"packet_dst_port": "transfer", "packet_dst_channel": "channel-7", "packet_sequence": "42"}),
	}}}
	nodeA.set("acknowledge_packet", ackTx)

	env.RegisterFake("a-1", nodeA, fakeIbc{dstChainID: "b-1", counterpartyPort: "transfer", counterpartyChannel: "channel-7"})
	env.RegisterFake("b-1", nodeB, fakeIbc{})

	tree, err := env.WaitIBC(context.Background(), "a-1", sendTx.Tx)
	require.NoError(t, err)
	require.Len(t, tree.Packets, 1)

	outcome := tree.Packets[0]
	require.Equal(t, OutcomeSuccess, outcome.Kind)
	require.Equal(t, uint64(42), outcome.Sequence)
	require.Equal(t, []byte("success"), outcome.AckBytes)
	require.NotNil(t, outcome.ReceiveTx)
	require.Equal(t, "b-1", outcome.ReceiveTx.Tx.ChainID)
	require.NotNil(t, outcome.AckTx)
	require.Equal(t, "a-1", outcome.AckTx.Tx.ChainID)
}

func TestWaitIBC_RecvPacketFailureRecordedNotAborted(t *testing.T) {
	env := fastPollingEnv()

	nodeA := newFakeTxFinder()
	nodeB := newFakeTxFinder()

	sendTx := querier.TxSearchResult{TxHash: "SEND", Tx: &querier.TxResult{Events: []querier.TxEvent{
		sendPacketEvent("connection-0", "transfer", "channel-0", "42"),
	}}}
	nodeA.set("send_packet", sendTx)

	recvTx := querier.TxSearchResult{TxHash: "RECV", Tx: &querier.TxResult{
		Code:   5,
		RawLog: "execute wasm contract failed",
		Events: []querier.TxEvent{
			txEvent("recv_packet", map[string]string{"packet_dst_port": "transfer", "packet_dst_channel": "channel-7", "packet_sequence": "42"}),
		},
	}}
	nodeB.set("recv_packet", recvTx)

	// Timeout path never resolves on its own; the receive-failure result
	// must still win the race and the tree must come back as an error-free
	// OutcomeFailed, not an aborted WaitIBC call.
	env.RegisterFake("a-1", nodeA, fakeIbc{dstChainID: "b-1", counterpartyPort: "transfer", counterpartyChannel: "channel-7"})
	env.RegisterFake("b-1", nodeB, fakeIbc{})

	tree, err := env.WaitIBC(context.Background(), "a-1", sendTx.Tx)
	require.NoError(t, err)
	require.Len(t, tree.Packets, 1)

	outcome := tree.Packets[0]
	require.Equal(t, OutcomeFailed, outcome.Kind)
	require.NotNil(t, outcome.FailedTx)
	require.Equal(t, "b-1", outcome.FailedTx.ChainID)
	require.Equal(t, uint32(5), outcome.Code)
	require.Equal(t, "execute wasm contract failed", outcome.RawLog)
}

func TestWaitIBC_TimeoutPath(t *testing.T) {
	env := fastPollingEnv()

	nodeA := newFakeTxFinder()
	nodeB := newFakeTxFinder() // never answers recv_packet: success path starves out

	sendTx := querier.TxSearchResult{TxHash: "SEND", Tx: &querier.TxResult{Events: []querier.TxEvent{
		sendPacketEvent("connection-0", "transfer", "channel-0", "42"),
	}}}
	nodeA.set("send_packet", sendTx)

	timeoutTx := querier.TxSearchResult{TxHash: "TIMEOUT", Tx: &querier.TxResult{Events: []querier.TxEvent{
		txEvent("timeout_packet", map[string]string{"packet_dst_port": "transfer", "packet_dst_channel": "channel-7", "packet_sequence": "42"}),
	}}}
	nodeA.set("timeout_packet", timeoutTx)

	env.RegisterFake("a-1", nodeA, fakeIbc{dstChainID: "b-1", counterpartyPort: "transfer", counterpartyChannel: "channel-7"})
	env.RegisterFake("b-1", nodeB, fakeIbc{})

	tree, err := env.WaitIBC(context.Background(), "a-1", sendTx.Tx)
	require.NoError(t, err)
	require.Len(t, tree.Packets, 1)

	outcome := tree.Packets[0]
	require.Equal(t, OutcomeTimeout, outcome.Kind)
	require.NotNil(t, outcome.TimeoutTx)
	require.Equal(t, "a-1", outcome.TimeoutTx.Tx.ChainID)
}
