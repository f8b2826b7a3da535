package querier

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	tmservice "github.com/cosmos/cosmos-sdk/client/grpc/tmservice"
	sdk "github.com/cosmos/cosmos-sdk/types"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	"google.golang.org/grpc"
)

// OrderBy selects ascending/descending ordering for event-indexed tx search.
type OrderBy int

const (
	OrderAsc OrderBy = iota
	OrderDesc
)

// BlockInfo is the subset of block data the environment layer needs for
// wait_blocks/block_info (spec.md §4.2, §4.5).
type BlockInfo struct {
	Height int64
	Time   time.Time
	ChainID string
}

// TxSearchResult is one row of a find_tx_by_events search.
type TxSearchResult struct {
	Height int64
	TxHash string
	Tx     *TxResult
}

// TxResult is the decoded outcome of a single transaction, reusing the same
// event/log shape as cworch.TxResponse; this package does not import
// cworch or environment (that would create an import cycle), so sender's
// toTxResponse converts TxResult into environment.TxResponse.
type TxResult struct {
	Height    int64
	TxHash    string
	Codespace string
	Code      uint32
	RawLog    string
	GasWanted int64
	GasUsed   int64
	Timestamp string
	Events    []TxEvent
}

// TxEvent mirrors cworch.Event without the import.
type TxEvent struct {
	Type       string
	Attributes []TxEventAttribute
}

// TxEventAttribute mirrors cworch.EventAttribute without the import.
type TxEventAttribute struct {
	Key, Value string
}

// Node is the read-only capability over block/tx/simulate RPCs (spec.md §4.2).
type Node struct {
	runtime *Runtime
	tm      tmservice.ServiceClient
	tx      txtypes.ServiceClient
}

// NewNode constructs an async-only Node querier.
func NewNode(conn *grpc.ClientConn) *Node {
	return &Node{tm: tmservice.NewServiceClient(conn), tx: txtypes.NewServiceClient(conn)}
}

// NewNodeSync additionally enables blocking methods via rt.
func NewNodeSync(conn *grpc.ClientConn, rt *Runtime) *Node {
	return &Node{tm: tmservice.NewServiceClient(conn), tx: txtypes.NewServiceClient(conn), runtime: rt}
}

// LatestBlock returns the chain's most recent block.
func (n *Node) LatestBlock(ctx context.Context) (BlockInfo, error) {
	resp, err := n.tm.GetLatestBlock(ctx, &tmservice.GetLatestBlockRequest{})
	if err != nil {
		return BlockInfo{}, err
	}
	return blockInfoFromHeader(resp.SdkBlock), nil
}

// LatestBlockBlocking is the sync-over-async sibling of LatestBlock.
func (n *Node) LatestBlockBlocking() (BlockInfo, error) {
	return callBlocking(n.runtime, n.LatestBlock)
}

// BlockByHeight returns the block at the given height.
func (n *Node) BlockByHeight(ctx context.Context, height int64) (BlockInfo, error) {
	resp, err := n.tm.GetBlockByHeight(ctx, &tmservice.GetBlockByHeightRequest{Height: height})
	if err != nil {
		return BlockInfo{}, err
	}
	return blockInfoFromHeader(resp.SdkBlock), nil
}

// BlockByHeightBlocking is the sync-over-async sibling of BlockByHeight.
func (n *Node) BlockByHeightBlocking(height int64) (BlockInfo, error) {
	return callBlocking(n.runtime, func(ctx context.Context) (BlockInfo, error) {
		return n.BlockByHeight(ctx, height)
	})
}

// BlockHeight returns the chain's current height.
func (n *Node) BlockHeight(ctx context.Context) (int64, error) {
	b, err := n.LatestBlock(ctx)
	if err != nil {
		return 0, err
	}
	return b.Height, nil
}

// BlockHeightBlocking is the sync-over-async sibling of BlockHeight.
func (n *Node) BlockHeightBlocking() (int64, error) {
	return callBlocking(n.runtime, n.BlockHeight)
}

// BlockTime returns the chain's current block time as nanoseconds since the
// Unix epoch, as a 128-bit integer (spec.md §4.2).
func (n *Node) BlockTime(ctx context.Context) (*big.Int, error) {
	b, err := n.LatestBlock(ctx)
	if err != nil {
		return nil, err
	}
	nanos := big.NewInt(b.Time.Unix())
	nanos.Mul(nanos, big.NewInt(int64(time.Second)))
	nanos.Add(nanos, big.NewInt(int64(b.Time.Nanosecond())))
	return nanos, nil
}

// BlockTimeBlocking is the sync-over-async sibling of BlockTime.
func (n *Node) BlockTimeBlocking() (*big.Int, error) {
	return callBlocking(n.runtime, n.BlockTime)
}

// SimulateTx returns the gas that would be consumed by broadcasting txBytes
// (spec.md §4.4 step 2; §9 "passes tx_bytes only").
func (n *Node) SimulateTx(ctx context.Context, txBytes []byte) (uint64, error) {
	resp, err := n.tx.Simulate(ctx, &txtypes.SimulateRequest{TxBytes: txBytes})
	if err != nil {
		return 0, fmt.Errorf("querier: simulate tx: %w", err)
	}
	return resp.GasInfo.GasUsed, nil
}

// SimulateTxBlocking is the sync-over-async sibling of SimulateTx.
func (n *Node) SimulateTxBlocking(txBytes []byte) (uint64, error) {
	return callBlocking(n.runtime, func(ctx context.Context) (uint64, error) {
		return n.SimulateTx(ctx, txBytes)
	})
}

// FindTx looks up a single transaction by hash.
func (n *Node) FindTx(ctx context.Context, hash string) (*TxResult, error) {
	resp, err := n.tx.GetTx(ctx, &txtypes.GetTxRequest{Hash: hash})
	if err != nil {
		return nil, err
	}
	return txResultFromResponse(resp.TxResponse), nil
}

// FindTxBlocking is the sync-over-async sibling of FindTx.
func (n *Node) FindTxBlocking(hash string) (*TxResult, error) {
	return callBlocking(n.runtime, func(ctx context.Context) (*TxResult, error) {
		return n.FindTx(ctx, hash)
	})
}

// EventPredicate is one "type.attribute=value" search term, matching the
// Tendermint/CometBFT event-indexed tx search query language.
type EventPredicate struct {
	Type  string
	Attr  string
	Value string
}

// FindTxByEvents returns every transaction whose events satisfy every
// predicate (spec.md §8 Property 6); an empty result is NOT an error
// (spec.md §8 Boundary 14).
func (n *Node) FindTxByEvents(ctx context.Context, events []EventPredicate, order OrderBy, limit uint64) ([]TxSearchResult, error) {
	query := eventsQuery(events)
	orderBy := txtypes.OrderBy_ORDER_BY_ASC
	if order == OrderDesc {
		orderBy = txtypes.OrderBy_ORDER_BY_DESC
	}
	if limit == 0 {
		limit = 100
	}
	resp, err := n.tx.GetTxsEvent(ctx, &txtypes.GetTxsEventRequest{
		Query:   query,
		OrderBy: orderBy,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}

	out := make([]TxSearchResult, 0, len(resp.TxResponses))
	for _, r := range resp.TxResponses {
		out = append(out, TxSearchResult{Height: r.Height, TxHash: r.TxHash, Tx: txResultFromResponse(r)})
	}
	return out, nil
}

// FindTxByEventsBlocking is the sync-over-async sibling of FindTxByEvents.
func (n *Node) FindTxByEventsBlocking(events []EventPredicate, order OrderBy, limit uint64) ([]TxSearchResult, error) {
	return callBlocking(n.runtime, func(ctx context.Context) ([]TxSearchResult, error) {
		return n.FindTxByEvents(ctx, events, order, limit)
	})
}

// FindSomeTxByEvents is FindTxByEvents narrowed to "first match or none",
// mirroring the Option-wrapper convenience in spec.md §4.2.
func (n *Node) FindSomeTxByEvents(ctx context.Context, events []EventPredicate, order OrderBy) (*TxSearchResult, error) {
	results, err := n.FindTxByEvents(ctx, events, order, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// FindSomeTxByEventsBlocking is the sync-over-async sibling of FindSomeTxByEvents.
func (n *Node) FindSomeTxByEventsBlocking(events []EventPredicate, order OrderBy) (*TxSearchResult, error) {
	return callBlocking(n.runtime, func(ctx context.Context) (*TxSearchResult, error) {
		return n.FindSomeTxByEvents(ctx, events, order)
	})
}

// AverageBlockSpeed samples a window of recent block heights and returns
// the percentile-th observed inter-block duration (spec.md §4.2). percentile
// is in [0,100]; 50 is the median.
func (n *Node) AverageBlockSpeed(ctx context.Context, percentile int, window int) (time.Duration, error) {
	if window <= 1 {
		window = 20
	}
	latest, err := n.LatestBlock(ctx)
	if err != nil {
		return 0, err
	}

	times := make([]time.Time, 0, window)
	times = append(times, latest.Time)
	for h := latest.Height - 1; h > latest.Height-int64(window) && h > 0; h-- {
		b, err := n.BlockByHeight(ctx, h)
		if err != nil {
			return 0, err
		}
		times = append(times, b.Time)
	}
	if len(times) < 2 {
		return 0, fmt.Errorf("querier: not enough blocks sampled to estimate block speed")
	}

	durations := make([]time.Duration, 0, len(times)-1)
	for i := 0; i < len(times)-1; i++ {
		durations = append(durations, times[i].Sub(times[i+1]))
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	idx := (percentile * (len(durations) - 1)) / 100
	if idx < 0 {
		idx = 0
	}
	if idx >= len(durations) {
		idx = len(durations) - 1
	}
	return durations[idx], nil
}

// AverageBlockSpeedBlocking is the sync-over-async sibling of AverageBlockSpeed.
func (n *Node) AverageBlockSpeedBlocking(percentile, window int) (time.Duration, error) {
	return callBlocking(n.runtime, func(ctx context.Context) (time.Duration, error) {
		return n.AverageBlockSpeed(ctx, percentile, window)
	})
}

func eventsQuery(events []EventPredicate) string {
	q := ""
	for i, e := range events {
		if i > 0 {
			q += " AND "
		}
		q += fmt.Sprintf("%s.%s='%s'", e.Type, e.Attr, e.Value)
	}
	return q
}

func blockInfoFromHeader(block *tmservice.Block) BlockInfo {
	if block == nil {
		return BlockInfo{}
	}
	return BlockInfo{
		Height:  block.Header.Height,
		Time:    block.Header.Time,
		ChainID: block.Header.ChainId,
	}
}

func txResultFromResponse(r *sdk.TxResponse) *TxResult {
	if r == nil {
		return nil
	}
	events := make([]TxEvent, 0, len(r.Events))
	for _, e := range r.Events {
		attrs := make([]TxEventAttribute, 0, len(e.Attributes))
		for _, a := range e.Attributes {
			attrs = append(attrs, TxEventAttribute{Key: a.Key, Value: a.Value})
		}
		events = append(events, TxEvent{Type: e.Type, Attributes: attrs})
	}
	return &TxResult{
		Height:    r.Height,
		TxHash:    r.TxHash,
		Codespace: r.Codespace,
		Code:      r.Code,
		RawLog:    r.RawLog,
		GasWanted: r.GasWanted,
		GasUsed:   r.GasUsed,
		Timestamp: r.Timestamp,
		Events:    events,
	}
}
