package interchain

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/b-harvest/cw-orch-go/pkg/cworch/environment"
	"github.com/b-harvest/cw-orch-go/pkg/cworch/querier"
)

// defaultPacketPollAttempts/defaultPacketPollInterval bound how long a
// single packet's receive/ack/timeout transaction is polled for before
// giving up, configurable per InterchainEnv (spec.md §4.6 "Polling policy").
const (
	defaultPacketPollAttempts = 30
	defaultPacketPollInterval = 10 * time.Second
)

// maxConcurrentPackets bounds the fan-out when following every packet sent
// in one transaction and every sibling in a recursive expansion (spec.md
// §5 "bounded concurrency").
const maxConcurrentPackets = 8

// SentPacket is one send_packet event parsed from a transaction, prior to
// resolving which chain it lands on (spec.md §4.6 step 1).
type SentPacket struct {
	ConnectionID string
	SrcPort      string
	SrcChannel   string
	Sequence     uint64
}

// ParsePacketsFromEvent scans tx for send_packet events and extracts the
// fields needed to follow each packet. ABCI emits one send_packet event per
// packet in a transaction; ordering is the transaction's own event order
// (spec.md §4.6 step 1).
func ParsePacketsFromEvent(tx *querier.TxResult) ([]SentPacket, error) {
	if tx == nil {
		return nil, nil
	}
	var out []SentPacket
	for _, e := range tx.Events {
		if e.Type != "send_packet" {
			continue
		}
		connectionID, ok := firstAttr(e, "packet_connection")
		if !ok {
			return nil, fmt.Errorf("interchain: send_packet event missing packet_connection")
		}
		srcPort, ok := firstAttr(e, "packet_src_port")
		if !ok {
			return nil, fmt.Errorf("interchain: send_packet event missing packet_src_port")
		}
		srcChannel, ok := firstAttr(e, "packet_src_channel")
		if !ok {
			return nil, fmt.Errorf("interchain: send_packet event missing packet_src_channel")
		}
		seqStr, ok := firstAttr(e, "packet_sequence")
		if !ok {
			return nil, fmt.Errorf("interchain: send_packet event missing packet_sequence")
		}
		sequence, err := strconv.ParseUint(seqStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("interchain: send_packet packet_sequence %q: %w", seqStr, err)
		}
		out = append(out, SentPacket{
			ConnectionID: connectionID,
			SrcPort:      srcPort,
			SrcChannel:   srcChannel,
			Sequence:     sequence,
		})
	}
	return out, nil
}

func firstAttr(e querier.TxEvent, key string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// packetPollAttempts/packetPollInterval return e's configured bound,
// defaulting when unset.
func (e *InterchainEnv) packetPollAttempts() int {
	if e.PacketPollAttempts > 0 {
		return e.PacketPollAttempts
	}
	return defaultPacketPollAttempts
}

func (e *InterchainEnv) packetPollInterval() time.Duration {
	if e.PacketPollInterval > 0 {
		return e.PacketPollInterval
	}
	return defaultPacketPollInterval
}

// WaitIBC follows every packet sent in tx (observed on srcChainID) to its
// conclusion, recursing into every transaction it discovers along the way
// (spec.md §4.6 "Primary operation").
func (e *InterchainEnv) WaitIBC(ctx context.Context, srcChainID string, tx *querier.TxResult) (*PacketTree, error) {
	packets, err := ParsePacketsFromEvent(tx)
	if err != nil {
		return nil, err
	}
	root := TxId{ChainID: srcChainID, Tx: tx}
	if len(packets) == 0 {
		return &PacketTree{Tx: root}, nil
	}

	srcEndpoint, err := e.endpoint(srcChainID)
	if err != nil {
		return nil, err
	}

	outcomes := make([]PacketOutcome, len(packets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPackets)
	for i, p := range packets {
		i, p := i, p
		g.Go(func() error {
			dstChainID, err := srcEndpoint.ibc.ConnectionClient(gctx, p.ConnectionID)
			if err != nil {
				return fmt.Errorf("interchain: resolve destination chain for connection %q: %w", p.ConnectionID, err)
			}
			dstPort, dstChannel, err := srcEndpoint.ibc.CounterpartyChannel(gctx, p.SrcPort, p.SrcChannel)
			if err != nil {
				return fmt.Errorf("interchain: resolve counterparty channel for %s/%s: %w", p.SrcPort, p.SrcChannel, err)
			}

			channel := InterchainChannel{
				PortA: IbcPort{ChainID: srcChainID, PortID: p.SrcPort, ChannelID: p.SrcChannel, ConnectionID: p.ConnectionID},
				PortB: IbcPort{ChainID: dstChainID, PortID: dstPort, ChannelID: dstChannel},
			}

			outcome, err := e.followPacket(gctx, srcChainID, channel, p.Sequence)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &PacketTree{Tx: root, Packets: outcomes}, nil
}

// followPacket races the success path against the timeout path for one
// packet; whichever resolves first determines the outcome, the other is
// abandoned (spec.md §4.6 step 3).
func (e *InterchainEnv) followPacket(ctx context.Context, srcChainID string, channel InterchainChannel, sequence uint64) (PacketOutcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type raced struct {
		outcome PacketOutcome
		err     error
	}
	results := make(chan raced, 2)

	go func() {
		o, err := e.followPacketCycle(ctx, srcChainID, channel, sequence)
		results <- raced{o, err}
	}()
	go func() {
		o, err := e.followPacketTimeout(ctx, srcChainID, channel, sequence)
		results <- raced{o, err}
	}()

	r := <-results
	return r.outcome, r.err
}

// followPacketCycle follows a packet to receipt on the destination chain
// and acknowledgement back on the source chain (spec.md §4.6 step 3,
// success path).
func (e *InterchainEnv) followPacketCycle(ctx context.Context, srcChainID string, channel InterchainChannel, sequence uint64) (PacketOutcome, error) {
	src, dst, err := channel.OrderedPortsFrom(srcChainID)
	if err != nil {
		return PacketOutcome{}, err
	}

	sendTx, err := e.getPacketSendTx(ctx, src, dst, sequence)
	if err != nil {
		return PacketOutcome{}, err
	}

	recvTx, err := e.getPacketReceiveTx(ctx, src, dst, sequence)
	if err != nil {
		return PacketOutcome{}, err
	}
	sendTxId := TxId{ChainID: src.ChainID, Tx: sendTx.Tx}
	if recvTx.Tx.Code != 0 {
		recvTxId := TxId{ChainID: dst.ChainID, Tx: recvTx.Tx}
		return failedOutcome(src, dst, sequence, &sendTxId, recvTxId), nil
	}

	ackBytes, err := packetAckFrom(recvTx.Tx, sequence)
	if err != nil {
		return PacketOutcome{}, err
	}

	ackTx, err := e.getPacketAckReceiveTx(ctx, src, dst, sequence)
	if err != nil {
		return PacketOutcome{}, err
	}
	if ackTx.Tx.Code != 0 {
		ackTxId := TxId{ChainID: src.ChainID, Tx: ackTx.Tx}
		return failedOutcome(src, dst, sequence, &sendTxId, ackTxId), nil
	}

	receiveTree, err := e.WaitIBC(ctx, dst.ChainID, recvTx.Tx)
	if err != nil {
		return PacketOutcome{}, err
	}
	ackTree, err := e.WaitIBC(ctx, src.ChainID, ackTx.Tx)
	if err != nil {
		return PacketOutcome{}, err
	}

	return PacketOutcome{
		Kind:      OutcomeSuccess,
		SrcPort:   src,
		DstPort:   dst,
		Sequence:  sequence,
		SendTx:    &sendTxId,
		ReceiveTx: receiveTree,
		AckTx:     ackTree,
		AckBytes:  ackBytes,
	}, nil
}

// failedOutcome records a non-zero ABCI code on a recv/ack/timeout
// transaction as a value instead of an error, so it surfaces as a leaf in
// the returned tree without aborting the rest of the trace (spec.md:129,
// spec.md:201).
func failedOutcome(src, dst IbcPort, sequence uint64, sendTx *TxId, failedTx TxId) PacketOutcome {
	return PacketOutcome{
		Kind:     OutcomeFailed,
		SrcPort:  src,
		DstPort:  dst,
		Sequence: sequence,
		SendTx:   sendTx,
		FailedTx: &failedTx,
		Code:     failedTx.Tx.Code,
		RawLog:   failedTx.Tx.RawLog,
	}
}

// followPacketTimeout looks for a timeout of the packet on its origin
// chain (spec.md §4.6 step 3, timeout path).
func (e *InterchainEnv) followPacketTimeout(ctx context.Context, srcChainID string, channel InterchainChannel, sequence uint64) (PacketOutcome, error) {
	src, dst, err := channel.OrderedPortsFrom(srcChainID)
	if err != nil {
		return PacketOutcome{}, err
	}

	sendTx, err := e.getPacketSendTx(ctx, src, dst, sequence)
	if err != nil {
		return PacketOutcome{}, err
	}

	timeoutTx, err := e.getPacketTimeoutTx(ctx, src, dst, sequence)
	if err != nil {
		return PacketOutcome{}, err
	}
	sendTxId := TxId{ChainID: src.ChainID, Tx: sendTx.Tx}
	if timeoutTx.Tx.Code != 0 {
		timeoutTxId := TxId{ChainID: src.ChainID, Tx: timeoutTx.Tx}
		return failedOutcome(src, dst, sequence, &sendTxId, timeoutTxId), nil
	}

	timeoutTree, err := e.WaitIBC(ctx, src.ChainID, timeoutTx.Tx)
	if err != nil {
		return PacketOutcome{}, err
	}

	return PacketOutcome{
		Kind:      OutcomeTimeout,
		SrcPort:   src,
		DstPort:   dst,
		Sequence:  sequence,
		SendTx:    &sendTxId,
		TimeoutTx: timeoutTree,
	}, nil
}

func packetAckFrom(tx *querier.TxResult, sequence uint64) ([]byte, error) {
	seqStr := strconv.FormatUint(sequence, 10)
	for _, e := range tx.Events {
		if e.Type != "write_acknowledgement" {
			continue
		}
		if s, ok := firstAttr(e, "packet_sequence"); !ok || s != seqStr {
			continue
		}
		ack, ok := firstAttr(e, "packet_ack")
		if !ok {
			return nil, fmt.Errorf("interchain: write_acknowledgement event for sequence %d missing packet_ack", sequence)
		}
		return []byte(ack), nil
	}
	return nil, fmt.Errorf("interchain: no write_acknowledgement event found for sequence %d", sequence)
}

func (e *InterchainEnv) getPacketSendTx(ctx context.Context, src, dst IbcPort, sequence uint64) (*querier.TxSearchResult, error) {
	srcEndpoint, err := e.endpoint(src.ChainID)
	if err != nil {
		return nil, err
	}
	predicates := []querier.EventPredicate{
		{Type: "send_packet", Attr: "packet_dst_port", Value: dst.PortID},
		{Type: "send_packet", Attr: "packet_dst_channel", Value: dst.ChannelID},
		{Type: "send_packet", Attr: "packet_sequence", Value: strconv.FormatUint(sequence, 10)},
	}
	return e.pollForTx(ctx, srcEndpoint.node, predicates)
}

func (e *InterchainEnv) getPacketReceiveTx(ctx context.Context, src, dst IbcPort, sequence uint64) (*querier.TxSearchResult, error) {
	dstEndpoint, err := e.endpoint(dst.ChainID)
	if err != nil {
		return nil, err
	}
	predicates := []querier.EventPredicate{
		{Type: "recv_packet", Attr: "packet_dst_port", Value: dst.PortID},
		{Type: "recv_packet", Attr: "packet_dst_channel", Value: dst.ChannelID},
		{Type: "recv_packet", Attr: "packet_sequence", Value: strconv.FormatUint(sequence, 10)},
	}
	return e.pollForTx(ctx, dstEndpoint.node, predicates)
}

func (e *InterchainEnv) getPacketTimeoutTx(ctx context.Context, src, dst IbcPort, sequence uint64) (*querier.TxSearchResult, error) {
	srcEndpoint, err := e.endpoint(src.ChainID)
	if err != nil {
		return nil, err
	}
	predicates := []querier.EventPredicate{
		{Type: "timeout_packet", Attr: "packet_dst_port", Value: dst.PortID},
		{Type: "timeout_packet", Attr: "packet_dst_channel", Value: dst.ChannelID},
		{Type: "timeout_packet", Attr: "packet_sequence", Value: strconv.FormatUint(sequence, 10)},
	}
	return e.pollForTx(ctx, srcEndpoint.node, predicates)
}

func (e *InterchainEnv) getPacketAckReceiveTx(ctx context.Context, src, dst IbcPort, sequence uint64) (*querier.TxSearchResult, error) {
	srcEndpoint, err := e.endpoint(src.ChainID)
	if err != nil {
		return nil, err
	}
	predicates := []querier.EventPredicate{
		{Type: "acknowledge_packet", Attr: "packet_dst_port", Value: dst.PortID},
		{Type: "acknowledge_packet", Attr: "packet_dst_channel", Value: dst.ChannelID},
		{Type: "acknowledge_packet", Attr: "packet_sequence", Value: strconv.FormatUint(sequence, 10)},
	}
	return e.pollForTx(ctx, srcEndpoint.node, predicates)
}

// pollForTx polls finder with a constant backoff until exactly one
// transaction matches predicates, more than one matches (ErrAmbiguousPacketMatch,
// not retried), or the attempt bound is exhausted (spec.md §4.6 "Polling
// policy").
func (e *InterchainEnv) pollForTx(ctx context.Context, finder TxFinder, predicates []querier.EventPredicate) (*querier.TxSearchResult, error) {
	var found *querier.TxSearchResult
	attempts := e.packetPollAttempts()

	bo := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewConstantBackOff(e.packetPollInterval()), uint64(attempts-1)), ctx)

	err := backoff.Retry(func() error {
		results, err := finder.FindTxByEvents(ctx, predicates, querier.OrderDesc, 2)
		if err != nil {
			return err
		}
		if len(results) > 1 {
			return backoff.Permanent(fmt.Errorf("%w: %d transactions matched %v", environment.ErrAmbiguousPacketMatch, len(results), predicates))
		}
		if len(results) == 0 {
			return fmt.Errorf("interchain: no transaction yet matching %v", predicates)
		}
		found = &results[0]
		return nil
	}, bo)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("interchain: no transaction found matching %v after %d attempts", predicates, attempts)
	}
	return found, nil
}
