package environment

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"

	"github.com/b-harvest/cw-orch-go/pkg/cworch/state"
)

// QuerierFunc performs a wasm smart query the way a contract's
// deps.Querier.Query would, letting OnChainCaller route reads through
// whatever query surface the host runtime exposes (spec.md §4.5's
// QuerierWrapper).
type QuerierFunc func(ctx context.Context, contractAddr string, queryMsg []byte) ([]byte, error)

// OnChainCaller is the Environment variant used when the calling code is
// itself running inside a CosmWasm contract: it never broadcasts, it only
// accumulates the CosmosMsg values the host contract should attach to its
// own Response, grounded on spec.md §4.5's OnChainCaller description.
//
// StateKeyPrefix reports the "cw-orch-on-chain-{contract-id}" namespace
// for this variant, but State() returns the store passed to
// NewOnChainCaller unchanged: lookups through it are not prefixed and share
// keys with any LiveDaemon/MockSim deployment using the same L1 store.
type OnChainCaller struct {
	mu sync.Mutex

	chainInfo  *ChainInfo
	store      state.Store
	selfAddr   string
	contractID string
	querier    QuerierFunc

	pending []sdk.Msg
}

// NewOnChainCaller binds selfAddr (the calling contract's own address, used
// as Sender on every emitted message) and querier (the host's query
// surface) to chainInfo/store.
func NewOnChainCaller(chainInfo *ChainInfo, store state.Store, contractID, selfAddr string, querier QuerierFunc) *OnChainCaller {
	return &OnChainCaller{
		chainInfo:  chainInfo,
		store:      store,
		selfAddr:   selfAddr,
		contractID: contractID,
		querier:    querier,
	}
}

// StateKeyPrefix returns "cw-orch-on-chain-{contract-id}" for this caller.
// The prefix is not applied to the store that State() returns.
func (o *OnChainCaller) StateKeyPrefix() string {
	return fmt.Sprintf("cw-orch-on-chain-%s", o.contractID)
}

// PendingMessages drains and returns the CosmosMsg values accumulated by
// write calls since the last drain, for the host contract to attach to its
// own Response.
func (o *OnChainCaller) PendingMessages() []sdk.Msg {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.pending
	o.pending = nil
	return out
}

func (o *OnChainCaller) ChainInfo() *ChainInfo { return o.chainInfo }
func (o *OnChainCaller) State() state.Store    { return o.store }
func (o *OnChainCaller) Sender() string        { return o.selfAddr }

func (o *OnChainCaller) enqueue(msg sdk.Msg) *TxResponse {
	o.mu.Lock()
	o.pending = append(o.pending, msg)
	o.mu.Unlock()
	return &TxResponse{Code: 0}
}

func (o *OnChainCaller) Upload(ctx context.Context, src ArtifactSource) (*TxResponse, error) {
	return o.UploadWithAccessConfig(ctx, src, nil)
}

func (o *OnChainCaller) UploadWithAccessConfig(ctx context.Context, src ArtifactSource, access *AccessConfig) (*TxResponse, error) {
	wasm, err := src.Wasm(ctx)
	if err != nil {
		return nil, fmt.Errorf("environment: read artifact: %w", err)
	}
	msg := &wasmtypes.MsgStoreCode{Sender: o.selfAddr, WASMByteCode: wasm}
	if access != nil {
		msg.InstantiatePermission = toWasmAccessConfig(access, o.selfAddr)
	}
	return o.enqueue(msg), nil
}

func (o *OnChainCaller) Instantiate(ctx context.Context, codeID uint64, initMsg any, label, admin string, funds []Coin) (*TxResponse, error) {
	msgBytes, err := json.Marshal(initMsg)
	if err != nil {
		return nil, fmt.Errorf("environment: marshal init msg: %w", err)
	}
	msg := &wasmtypes.MsgInstantiateContract{
		Sender: o.selfAddr,
		Admin:  admin,
		CodeID: codeID,
		Label:  label,
		Msg:    msgBytes,
		Funds:  toSdkCoins(funds),
	}
	return o.enqueue(msg), nil
}

func (o *OnChainCaller) Instantiate2(ctx context.Context, codeID uint64, initMsg any, label, admin string, funds []Coin, salt []byte) (*TxResponse, error) {
	msgBytes, err := json.Marshal(initMsg)
	if err != nil {
		return nil, fmt.Errorf("environment: marshal init msg: %w", err)
	}
	msg := &wasmtypes.MsgInstantiateContract2{
		Sender: o.selfAddr,
		Admin:  admin,
		CodeID: codeID,
		Label:  label,
		Msg:    msgBytes,
		Funds:  toSdkCoins(funds),
		Salt:   salt,
	}
	return o.enqueue(msg), nil
}

func (o *OnChainCaller) Execute(ctx context.Context, execMsg any, funds []Coin, contractAddr string) (*TxResponse, error) {
	msgBytes, err := json.Marshal(execMsg)
	if err != nil {
		return nil, fmt.Errorf("environment: marshal exec msg: %w", err)
	}
	msg := &wasmtypes.MsgExecuteContract{
		Sender:   o.selfAddr,
		Contract: contractAddr,
		Msg:      msgBytes,
		Funds:    toSdkCoins(funds),
	}
	return o.enqueue(msg), nil
}

func (o *OnChainCaller) Migrate(ctx context.Context, migrateMsg any, newCodeID uint64, contractAddr string) (*TxResponse, error) {
	msgBytes, err := json.Marshal(migrateMsg)
	if err != nil {
		return nil, fmt.Errorf("environment: marshal migrate msg: %w", err)
	}
	msg := &wasmtypes.MsgMigrateContract{
		Sender:   o.selfAddr,
		Contract: contractAddr,
		CodeID:   newCodeID,
		Msg:      msgBytes,
	}
	return o.enqueue(msg), nil
}

func (o *OnChainCaller) BankSend(ctx context.Context, to string, funds []Coin) (*TxResponse, error) {
	msg := &banktypes.MsgSend{FromAddress: o.selfAddr, ToAddress: to, Amount: toSdkCoins(funds)}
	return o.enqueue(msg), nil
}

func (o *OnChainCaller) Query(ctx context.Context, queryMsg any, contractAddr string, dst any) error {
	if o.querier == nil {
		return fmt.Errorf("%w: OnChainCaller has no querier configured", ErrUnsupportedOnBackend)
	}
	msgBytes, err := json.Marshal(queryMsg)
	if err != nil {
		return fmt.Errorf("environment: marshal query msg: %w", err)
	}
	data, err := o.querier(ctx, contractAddr, msgBytes)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func (o *OnChainCaller) WaitBlocks(ctx context.Context, n uint64) error {
	return &UnsupportedOnBackendError{Op: "wait_blocks", Backend: "OnChainCaller"}
}

func (o *OnChainCaller) WaitSeconds(ctx context.Context, seconds uint64) error {
	return &UnsupportedOnBackendError{Op: "wait_seconds", Backend: "OnChainCaller"}
}

func (o *OnChainCaller) NextBlock(ctx context.Context) error {
	return &UnsupportedOnBackendError{Op: "next_block", Backend: "OnChainCaller"}
}

func (o *OnChainCaller) BlockInfo(ctx context.Context) (BlockInfo, error) {
	return BlockInfo{}, &UnsupportedOnBackendError{Op: "block_info", Backend: "OnChainCaller"}
}

var _ Environment = (*OnChainCaller)(nil)
