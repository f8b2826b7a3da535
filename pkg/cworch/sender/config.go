// Package sender implements the L3 transaction pipeline: building,
// SIGN_MODE_DIRECT signing, broadcasting and confirming a transaction
// against a single Cosmos SDK account, grounded on
// pkg/network/cosmos/{txbuilder,account,signing}.go.
package sender

import (
	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/std"
	"github.com/cosmos/cosmos-sdk/x/auth/tx"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	govtypes "github.com/cosmos/cosmos-sdk/x/gov/types/v1"
	stakingtypes "github.com/cosmos/cosmos-sdk/x/staking/types"
	transfertypes "github.com/cosmos/ibc-go/v10/modules/apps/transfer/types"
)

// NewTxConfig builds the protobuf TxConfig every Sender signs and encodes
// with: the standard interfaces plus the module message types a contract
// deployment pipeline actually emits (wasm, bank, ibc transfer) registered
// against a fresh interface registry.
func NewTxConfig() client.TxConfig {
	registry := codectypes.NewInterfaceRegistry()

	std.RegisterInterfaces(registry)
	authtypes.RegisterInterfaces(registry)
	banktypes.RegisterInterfaces(registry)
	govtypes.RegisterInterfaces(registry)
	stakingtypes.RegisterInterfaces(registry)
	wasmtypes.RegisterInterfaces(registry)
	transfertypes.RegisterInterfaces(registry)

	protoCodec := codec.NewProtoCodec(registry)

	txConfig, err := tx.NewTxConfigWithOptions(protoCodec, tx.ConfigOptions{
		EnabledSignModes: tx.DefaultSignModes,
	})
	if err != nil {
		panic("sender: failed to construct tx config: " + err.Error())
	}
	return txConfig
}
