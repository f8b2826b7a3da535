package environment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	"google.golang.org/grpc"

	"github.com/b-harvest/cw-orch-go/pkg/cworch/querier"
	"github.com/b-harvest/cw-orch-go/pkg/cworch/sender"
	"github.com/b-harvest/cw-orch-go/pkg/cworch/state"
)

// LiveDaemon is the Environment backend that broadcasts real transactions
// against a live Cosmos SDK chain over gRPC, grounded on
// pkg/network/cosmos/txbuilder.go and cw-orch-daemon's Daemon.
type LiveDaemon struct {
	chainInfo *ChainInfo
	store     state.Store
	conn      *grpc.ClientConn
	tx        *sender.TxBuilder

	bank *querier.Bank
	wasm *querier.Wasm
	node *querier.Node
}

// NewLiveDaemon binds a dialed gRPC connection, state store and signing
// wallet to chainInfo. Callers obtain conn via querier.SelectEndpoint.
func NewLiveDaemon(chainInfo *ChainInfo, store state.Store, conn *grpc.ClientConn, wallet *sender.Wallet) *LiveDaemon {
	feeToken := chainInfo.DefaultFeeToken()
	return &LiveDaemon{
		chainInfo: chainInfo,
		store:     store,
		conn:      conn,
		tx:        sender.NewTxBuilder(conn, chainInfo.ChainID, wallet, feeToken.Denom, feeToken.MinGasPrice),
		bank:      querier.NewBank(conn),
		wasm:      querier.NewWasm(conn),
		node:      querier.NewNode(conn),
	}
}

func (d *LiveDaemon) ChainInfo() *ChainInfo { return d.chainInfo }
func (d *LiveDaemon) State() state.Store    { return d.store }
func (d *LiveDaemon) Sender() string        { return d.tx.Address() }

func (d *LiveDaemon) Upload(ctx context.Context, src ArtifactSource) (*TxResponse, error) {
	return d.UploadWithAccessConfig(ctx, src, nil)
}

func (d *LiveDaemon) UploadWithAccessConfig(ctx context.Context, src ArtifactSource, access *AccessConfig) (*TxResponse, error) {
	wasm, err := src.Wasm(ctx)
	if err != nil {
		return nil, fmt.Errorf("environment: read artifact: %w", err)
	}

	msg := &wasmtypes.MsgStoreCode{
		Sender:       d.tx.Address(),
		WASMByteCode: wasm,
	}
	if access != nil {
		msg.InstantiatePermission = toWasmAccessConfig(access, d.tx.Address())
	}
	return d.tx.Broadcast(ctx, []sdk.Msg{msg}, "")
}

func (d *LiveDaemon) Instantiate(ctx context.Context, codeID uint64, initMsg any, label, admin string, funds []Coin) (*TxResponse, error) {
	msgBytes, err := json.Marshal(initMsg)
	if err != nil {
		return nil, fmt.Errorf("environment: marshal init msg: %w", err)
	}
	msg := &wasmtypes.MsgInstantiateContract{
		Sender: d.tx.Address(),
		Admin:  admin,
		CodeID: codeID,
		Label:  label,
		Msg:    msgBytes,
		Funds:  toSdkCoins(funds),
	}
	return d.tx.Broadcast(ctx, []sdk.Msg{msg}, "")
}

func (d *LiveDaemon) Instantiate2(ctx context.Context, codeID uint64, initMsg any, label, admin string, funds []Coin, salt []byte) (*TxResponse, error) {
	msgBytes, err := json.Marshal(initMsg)
	if err != nil {
		return nil, fmt.Errorf("environment: marshal init msg: %w", err)
	}
	msg := &wasmtypes.MsgInstantiateContract2{
		Sender: d.tx.Address(),
		Admin:  admin,
		CodeID: codeID,
		Label:  label,
		Msg:    msgBytes,
		Funds:  toSdkCoins(funds),
		Salt:   salt,
	}
	return d.tx.Broadcast(ctx, []sdk.Msg{msg}, "")
}

func (d *LiveDaemon) Execute(ctx context.Context, execMsg any, funds []Coin, contractAddr string) (*TxResponse, error) {
	msgBytes, err := json.Marshal(execMsg)
	if err != nil {
		return nil, fmt.Errorf("environment: marshal exec msg: %w", err)
	}
	msg := &wasmtypes.MsgExecuteContract{
		Sender:   d.tx.Address(),
		Contract: contractAddr,
		Msg:      msgBytes,
		Funds:    toSdkCoins(funds),
	}
	return d.tx.Broadcast(ctx, []sdk.Msg{msg}, "")
}

func (d *LiveDaemon) Migrate(ctx context.Context, migrateMsg any, newCodeID uint64, contractAddr string) (*TxResponse, error) {
	msgBytes, err := json.Marshal(migrateMsg)
	if err != nil {
		return nil, fmt.Errorf("environment: marshal migrate msg: %w", err)
	}
	msg := &wasmtypes.MsgMigrateContract{
		Sender:   d.tx.Address(),
		Contract: contractAddr,
		CodeID:   newCodeID,
		Msg:      msgBytes,
	}
	return d.tx.Broadcast(ctx, []sdk.Msg{msg}, "")
}

func (d *LiveDaemon) BankSend(ctx context.Context, to string, funds []Coin) (*TxResponse, error) {
	msg := &banktypes.MsgSend{
		FromAddress: d.tx.Address(),
		ToAddress:   to,
		Amount:      toSdkCoins(funds),
	}
	return d.tx.Broadcast(ctx, []sdk.Msg{msg}, "")
}

func (d *LiveDaemon) Query(ctx context.Context, queryMsg any, contractAddr string, dst any) error {
	msgBytes, err := json.Marshal(queryMsg)
	if err != nil {
		return fmt.Errorf("environment: marshal query msg: %w", err)
	}
	data, err := d.wasm.SmartQuery(ctx, contractAddr, msgBytes)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func (d *LiveDaemon) WaitBlocks(ctx context.Context, n uint64) error {
	start, err := d.node.BlockHeight(ctx)
	if err != nil {
		return err
	}
	target := start + int64(n)
	return d.pollUntilHeight(ctx, target)
}

func (d *LiveDaemon) NextBlock(ctx context.Context) error { return d.WaitBlocks(ctx, 1) }

func (d *LiveDaemon) WaitSeconds(ctx context.Context, seconds uint64) error {
	info, err := d.BlockInfo(ctx)
	if err != nil {
		return err
	}
	deadline := info.Time.Add(time.Duration(seconds) * time.Second)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		info, err := d.BlockInfo(ctx)
		if err != nil {
			return err
		}
		if !info.Time.Before(deadline) {
			return nil
		}
	}
}

// Balance returns the address's holdings, optionally filtered to one denom.
// This is not part of the Environment interface (query helpers vary too
// much across backends to standardize). MockSim and ForkedSim expose a
// Balance(addr, denom) without a context; OnChainCaller has none.
func (d *LiveDaemon) Balance(ctx context.Context, addr, denom string) ([]Coin, error) {
	coins, err := d.bank.Balance(ctx, addr, denom)
	if err != nil {
		return nil, err
	}
	out := make([]Coin, 0, len(coins))
	for _, c := range coins {
		out = append(out, Coin{Denom: c.Denom, Amount: c.Amount})
	}
	return out, nil
}

func (d *LiveDaemon) BlockInfo(ctx context.Context) (BlockInfo, error) {
	b, err := d.node.LatestBlock(ctx)
	if err != nil {
		return BlockInfo{}, err
	}
	return BlockInfo{Height: b.Height, Time: b.Time, ChainID: b.ChainID}, nil
}

func (d *LiveDaemon) pollUntilHeight(ctx context.Context, target int64) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		height, err := d.node.BlockHeight(ctx)
		if err != nil {
			return err
		}
		if height >= target {
			return nil
		}
	}
}

func toSdkCoins(coins []Coin) sdk.Coins {
	out := make(sdk.Coins, 0, len(coins))
	for _, c := range coins {
		amount, ok := sdkmath.NewIntFromString(c.Amount)
		if !ok {
			continue
		}
		out = append(out, sdk.NewCoin(c.Denom, amount))
	}
	return out.Sort()
}

func toWasmAccessConfig(access *AccessConfig, creator string) *wasmtypes.AccessConfig {
	switch access.Permission {
	case AccessTypeNobody:
		return &wasmtypes.AccessConfig{Permission: wasmtypes.AccessTypeNobody}
	case AccessTypeOnlyAddress:
		addr := creator
		if len(access.Addresses) > 0 {
			addr = access.Addresses[0]
		}
		return &wasmtypes.AccessConfig{Permission: wasmtypes.AccessTypeOnlyAddress, Address: addr}
	case AccessTypeAnyOfAddresses:
		return &wasmtypes.AccessConfig{Permission: wasmtypes.AccessTypeAnyOfAddresses, Addresses: access.Addresses}
	default:
		return &wasmtypes.AccessConfig{Permission: wasmtypes.AccessTypeEverybody}
	}
}

var _ Environment = (*LiveDaemon)(nil)
