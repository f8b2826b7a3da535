package interchain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/b-harvest/cw-orch-go/pkg/cworch/querier"
)

func sendPacketEvent(connection, srcPort, srcChannel, sequence string) querier.TxEvent {
	return querier.TxEvent{
		Type: "send_packet",
		Attributes: []querier.TxEventAttribute{
			{Key: "packet_connection", Value: connection},
			{Key: "packet_src_port", Value: srcPort},
			{Key: "packet_src_channel", Value: srcChannel},
			{Key: "packet_sequence", Value: sequence},
		},
	}
}

func TestParsePacketsFromEvent_SinglePacket(t *testing.T) {
	tx := &querier.TxResult{Events: []querier.TxEvent{
		sendPacketEvent("connection-0", "transfer", "channel-0", "42"),
	}}

	packets, err := ParsePacketsFromEvent(tx)
	require.NoError(t, err)
	require.Len(t, packets, 1)
	require.Equal(t, SentPacket{ConnectionID: "connection-0", SrcPort: "transfer", SrcChannel: "channel-0", Sequence: 42}, packets[0])
}

func TestParsePacketsFromEvent_MultiplePacketsPreserveOrder(t *testing.T) {
	tx := &querier.TxResult{Events: []querier.TxEvent{
		sendPacketEvent("connection-0", "transfer", "channel-0", "1"),
		{Type: "wasm", Attributes: nil},
		sendPacketEvent("connection-0", "transfer", "channel-0", "2"),
	}}

	packets, err := ParsePacketsFromEvent(tx)
	require.NoError(t, err)
	require.Len(t, packets, 2)
	require.Equal(t, uint64(1), packets[0].Sequence)
	require.Equal(t, uint64(2), packets[1].Sequence)
}

func TestParsePacketsFromEvent_NoSendPacketEvents(t *testing.T) {
	tx := &querier.TxResult{Events: []querier.TxEvent{{Type: "wasm"}}}
	packets, err := ParsePacketsFromEvent(tx)
	require.NoError(t, err)
	require.Empty(t, packets)
}

func TestParsePacketsFromEvent_NilTx(t *testing.T) {
	packets, err := ParsePacketsFromEvent(nil)
	require.NoError(t, err)
	require.Nil(t, packets)
}

func TestParsePacketsFromEvent_MissingAttributeErrors(t *testing.T) {
	tx := &querier.TxResult{Events: []querier.TxEvent{
		{Type: "send_packet", Attributes: []querier.TxEventAttribute{{Key: "packet_connection", Value: "connection-0"}}},
	}}
	_, err := ParsePacketsFromEvent(tx)
	require.Error(t, err)
}

func TestInterchainChannel_OrderedPortsFrom(t *testing.T) {
	channel := InterchainChannel{
		PortA: IbcPort{ChainID: "a-1", PortID: "transfer", ChannelID: "channel-0"},
		PortB: IbcPort{ChainID: "b-1", PortID: "transfer", ChannelID: "channel-7"},
	}

	src, dst, err := channel.OrderedPortsFrom("a-1")
	require.NoError(t, err)
	require.Equal(t, "a-1", src.ChainID)
	require.Equal(t, "b-1", dst.ChainID)

	src, dst, err = channel.OrderedPortsFrom("b-1")
	require.NoError(t, err)
	require.Equal(t, "b-1", src.ChainID)
	require.Equal(t, "a-1", dst.ChainID)

	_, _, err = channel.OrderedPortsFrom("c-1")
	require.Error(t, err)
}
