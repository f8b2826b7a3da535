// Package interchain implements the L5 IBC packet-tracing engine: channel
// registration, single-packet tracing, and recursive packet-tree
// construction across multiple Environment-backed chains (spec.md §4.6).
package interchain

import (
	"fmt"

	"github.com/b-harvest/cw-orch-go/pkg/cworch/querier"
)

// TxId names the chain a transaction was observed on alongside its decoded
// result, mirroring spec.md §3's TxId used throughout PacketFlow/PacketTree.
type TxId struct {
	ChainID string
	Tx      *querier.TxResult
}

// EventAttrValue returns the first attribute value for (eventType, key), or
// "" if absent. Duplicated from environment.TxResponse's helper of the same
// name because querier.TxResult cannot import environment without a cycle.
func (t TxId) EventAttrValue(eventType, key string) string {
	if t.Tx == nil {
		return ""
	}
	for _, e := range t.Tx.Events {
		if e.Type != eventType {
			continue
		}
		for _, a := range e.Attributes {
			if a.Key == key {
				return a.Value
			}
		}
	}
	return ""
}

// EventsOfType returns every event of the given type on this transaction.
func (t TxId) EventsOfType(eventType string) []querier.TxEvent {
	if t.Tx == nil {
		return nil
	}
	var out []querier.TxEvent
	for _, e := range t.Tx.Events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Succeeded reports whether the transaction's ABCI code is zero.
func (t TxId) Succeeded() bool { return t.Tx != nil && t.Tx.Code == 0 }

// IbcPort names one side of an IBC channel (spec.md §3).
type IbcPort struct {
	ChainID      string
	PortID       string
	ChannelID    string
	ConnectionID string
}

func (p IbcPort) String() string {
	return fmt.Sprintf("%s/%s on %s", p.PortID, p.ChannelID, p.ChainID)
}

// InterchainChannel pairs the two ports of one IBC channel. Ports are
// ordered by "from" on demand via OrderedPortsFrom rather than fixed
// src/dst roles, since either side may be the sender of a given packet.
type InterchainChannel struct {
	PortA IbcPort
	PortB IbcPort
}

// OrderedPortsFrom returns (src, dst) with src matching fromChainID.
func (c InterchainChannel) OrderedPortsFrom(fromChainID string) (src, dst IbcPort, err error) {
	switch fromChainID {
	case c.PortA.ChainID:
		return c.PortA, c.PortB, nil
	case c.PortB.ChainID:
		return c.PortB, c.PortA, nil
	default:
		return IbcPort{}, IbcPort{}, fmt.Errorf("interchain: channel %v/%v has no port on chain %q", c.PortA, c.PortB, fromChainID)
	}
}

// PacketOutcomeKind discriminates PacketOutcome's three shapes.
type PacketOutcomeKind int

const (
	OutcomeSuccess PacketOutcomeKind = iota
	OutcomeTimeout
	OutcomeFailed
)

func (k PacketOutcomeKind) String() string {
	switch k {
	case OutcomeTimeout:
		return "timeout"
	case OutcomeFailed:
		return "failed"
	default:
		return "success"
	}
}

// PacketOutcome is the traced result of one IBC packet (spec.md §3
// PacketFlow), with the destination-side transactions recursively expanded
// into their own PacketTree since those transactions may themselves emit
// further packets.
type PacketOutcome struct {
	Kind PacketOutcomeKind

	SrcPort  IbcPort
	DstPort  IbcPort
	Sequence uint64
	SendTx   *TxId

	// Success-only fields.
	ReceiveTx *PacketTree
	AckTx     *PacketTree
	AckBytes  []byte

	// Timeout-only field.
	TimeoutTx *PacketTree

	// Failed-only fields: set when a recv/ack/timeout transaction involved
	// in this packet's flow carries a non-zero ABCI code (spec.md:129,
	// spec.md:201 — recorded in the tree, does not abort the trace).
	FailedTx *TxId
	Code     uint32
	RawLog   string
}

// PacketTree is the recursive result of wait_ibc: the transaction that was
// analyzed plus the outcome of every packet it sent (spec.md §3, §4.6).
type PacketTree struct {
	Tx      TxId
	Packets []PacketOutcome
}
