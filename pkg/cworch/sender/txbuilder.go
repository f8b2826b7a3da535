package sender

import (
	"context"
	"fmt"
	"math"
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/cenkalti/backoff/v4"
	"github.com/cosmos/cosmos-sdk/client"
	sdk "github.com/cosmos/cosmos-sdk/types"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	"github.com/cosmos/cosmos-sdk/types/tx/signing"
	authsigning "github.com/cosmos/cosmos-sdk/x/auth/signing"
	"google.golang.org/grpc"

	"github.com/b-harvest/cw-orch-go/pkg/cworch/environment"
	"github.com/b-harvest/cw-orch-go/pkg/cworch/querier"
)

// defaultGasAdjustment is applied to a tx's simulated gas usage before it is
// used as the broadcast gas limit (spec.md §4.4), grounded on
// cw-orch-daemon/src/tx_builder.rs's 1.3 default.
const defaultGasAdjustment = 1.3

// defaultConfirmRetries/defaultConfirmInterval bound how long Broadcast
// polls for the tx to land after a successful CheckTx.
const (
	defaultConfirmRetries  = 15
	defaultConfirmInterval = 2 * time.Second
)

// TxBuilder is the L3 Sender: it resolves account state, simulates gas,
// computes a fee, signs under SIGN_MODE_DIRECT and broadcasts+confirms a
// transaction for a single Wallet, grounded on
// pkg/network/cosmos/txbuilder.go adapted from REST/JSON-RPC to gRPC.
type TxBuilder struct {
	chainID       string
	wallet        *Wallet
	feeDenom      string
	minGasPrice   float64
	gasAdjustment float64

	txConfig client.TxConfig
	auth     *querier.Auth
	node     *querier.Node
	txClient txtypes.ServiceClient
}

// NewTxBuilder wires a TxBuilder to a chain's gRPC connection.
func NewTxBuilder(conn *grpc.ClientConn, chainID string, wallet *Wallet, feeDenom string, minGasPrice float64) *TxBuilder {
	return &TxBuilder{
		chainID:       chainID,
		wallet:        wallet,
		feeDenom:      feeDenom,
		minGasPrice:   minGasPrice,
		gasAdjustment: defaultGasAdjustment,
		txConfig:      NewTxConfig(),
		auth:          querier.NewAuth(conn),
		node:          querier.NewNode(conn),
		txClient:      txtypes.NewServiceClient(conn),
	}
}

// WithGasAdjustment overrides the default 1.3 multiplier.
func (b *TxBuilder) WithGasAdjustment(adj float64) *TxBuilder {
	b.gasAdjustment = adj
	return b
}

// Address returns the signing wallet's bech32 address.
func (b *TxBuilder) Address() string { return b.wallet.Address() }

// Broadcast builds, simulates, signs, broadcasts and confirms a transaction
// carrying msgs, returning the normalized TxResponse (spec.md §4.4).
func (b *TxBuilder) Broadcast(ctx context.Context, msgs []sdk.Msg, memo string) (*environment.TxResponse, error) {
	account, err := b.auth.BaseAccount(ctx, b.wallet.Address())
	if err != nil {
		return nil, fmt.Errorf("sender: query account: %w", err)
	}

	gasLimit, err := b.simulate(ctx, msgs, memo, account)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", environment.ErrGasSimulationFailed, errorsmod.Wrap(err, "gas simulation failed"))
	}
	adjusted := uint64(math.Ceil(float64(gasLimit) * b.gasAdjustment))
	fee := b.calculateFee(adjusted)

	txBytes, err := b.buildSignedTx(ctx, msgs, memo, account, adjusted, fee)
	if err != nil {
		return nil, err
	}

	broadcastResp, err := b.txClient.BroadcastTx(ctx, &txtypes.BroadcastTxRequest{
		TxBytes: txBytes,
		Mode:    txtypes.BroadcastMode_BROADCAST_MODE_SYNC,
	})
	if err != nil {
		return nil, errorsmod.Wrap(err, "sender: broadcast")
	}
	if broadcastResp.TxResponse.Code != 0 {
		return nil, &environment.TxFailedError{Code: broadcastResp.TxResponse.Code, RawLog: broadcastResp.TxResponse.RawLog}
	}

	return b.confirm(ctx, broadcastResp.TxResponse.TxHash)
}

// calculateFee returns ceil(gasLimit * minGasPrice) of feeDenom
// (spec.md §4.4 fee policy).
func (b *TxBuilder) calculateFee(gasLimit uint64) sdk.Coins {
	amount := math.Ceil(float64(gasLimit) * b.minGasPrice)
	return sdk.NewCoins(sdk.NewCoin(b.feeDenom, sdkmath.NewInt(int64(amount))))
}

func (b *TxBuilder) simulate(ctx context.Context, msgs []sdk.Msg, memo string, account querier.BaseAccountInfo) (uint64, error) {
	unsignedBytes, err := b.encodeForSimulation(msgs, memo, account)
	if err != nil {
		return 0, err
	}
	return b.node.SimulateTx(ctx, unsignedBytes)
}

// encodeForSimulation builds a tx with a single empty-signature slot so the
// simulate RPC can estimate gas without a real signature (SDK convention).
func (b *TxBuilder) encodeForSimulation(msgs []sdk.Msg, memo string, account querier.BaseAccountInfo) ([]byte, error) {
	txBuilder := b.txConfig.NewTxBuilder()
	if err := txBuilder.SetMsgs(msgs...); err != nil {
		return nil, fmt.Errorf("sender: set messages: %w", err)
	}
	txBuilder.SetMemo(memo)

	sig := signing.SignatureV2{
		PubKey: b.wallet.PubKey(),
		Data: &signing.SingleSignatureData{
			SignMode:  signing.SignMode_SIGN_MODE_DIRECT,
			Signature: nil,
		},
		Sequence: account.Sequence,
	}
	if err := txBuilder.SetSignatures(sig); err != nil {
		return nil, fmt.Errorf("sender: set empty signature: %w", err)
	}

	return b.txConfig.TxEncoder()(txBuilder.GetTx())
}

func (b *TxBuilder) buildSignedTx(ctx context.Context, msgs []sdk.Msg, memo string, account querier.BaseAccountInfo, gasLimit uint64, fee sdk.Coins) ([]byte, error) {
	txBuilder := b.txConfig.NewTxBuilder()
	if err := txBuilder.SetMsgs(msgs...); err != nil {
		return nil, fmt.Errorf("sender: set messages: %w", err)
	}
	txBuilder.SetMemo(memo)
	txBuilder.SetGasLimit(gasLimit)
	txBuilder.SetFeeAmount(fee)

	signerData := authsigning.SignerData{
		ChainID:       b.chainID,
		AccountNumber: account.AccountNumber,
		Sequence:      account.Sequence,
	}

	signBytes, err := authsigning.GetSignBytesAdapter(
		ctx, b.txConfig.SignModeHandler(), signing.SignMode_SIGN_MODE_DIRECT, signerData, txBuilder.GetTx(),
	)
	if err != nil {
		return nil, fmt.Errorf("sender: get sign bytes: %w", err)
	}

	signature, err := b.wallet.Sign(signBytes)
	if err != nil {
		return nil, err
	}

	sig := signing.SignatureV2{
		PubKey:   b.wallet.PubKey(),
		Data:     &signing.SingleSignatureData{SignMode: signing.SignMode_SIGN_MODE_DIRECT, Signature: signature},
		Sequence: account.Sequence,
	}
	if err := txBuilder.SetSignatures(sig); err != nil {
		return nil, fmt.Errorf("sender: set signatures: %w", err)
	}

	return b.txConfig.TxEncoder()(txBuilder.GetTx())
}

// confirm polls FindTx with a constant backoff until the transaction is
// indexed or the retry bound is exhausted (spec.md §4.4).
func (b *TxBuilder) confirm(ctx context.Context, hash string) (*environment.TxResponse, error) {
	var result *querier.TxResult
	attempts := 0

	bo := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewConstantBackOff(defaultConfirmInterval), defaultConfirmRetries), ctx)

	err := backoff.Retry(func() error {
		attempts++
		r, err := b.node.FindTx(ctx, hash)
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("sender: tx %s not yet indexed", hash)
		}
		result = r
		return nil
	}, bo)
	if err != nil || result == nil {
		return nil, &environment.TxNotFoundAfterBroadcastError{Hash: hash, Attempts: attempts}
	}

	resp := toTxResponse(result)
	if !resp.Succeeded() {
		return resp, &environment.TxFailedError{Code: resp.Code, RawLog: resp.RawLog}
	}
	return resp, nil
}

func toTxResponse(r *querier.TxResult) *environment.TxResponse {
	events := make([]environment.Event, 0, len(r.Events))
	for _, e := range r.Events {
		attrs := make([]environment.EventAttribute, 0, len(e.Attributes))
		for _, a := range e.Attributes {
			attrs = append(attrs, environment.EventAttribute{Key: a.Key, Value: a.Value})
		}
		events = append(events, environment.Event{Type: e.Type, Attributes: attrs})
	}
	return &environment.TxResponse{
		Height:    r.Height,
		TxHash:    r.TxHash,
		Codespace: r.Codespace,
		Code:      r.Code,
		RawLog:    r.RawLog,
		GasWanted: r.GasWanted,
		GasUsed:   r.GasUsed,
		Timestamp: environment.ParseTimestamp(r.Timestamp),
		Events:    events,
	}
}
