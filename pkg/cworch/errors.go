// Package cworch is the public SDK for deploying and orchestrating CosmWasm
// contracts across live chains, in-process simulators, and forked-chain
// simulators, and for tracing IBC packets those deployments emit.
package cworch

import "github.com/b-harvest/cw-orch-go/pkg/cworch/environment"

// The error taxonomy lives in package environment so that the environment
// backends (which raise most of these) don't need to import this package;
// cworch re-exports the sentinels and typed errors callers of the handle
// API see.
var (
	ErrGrpcListEmpty                  = environment.ErrGrpcListEmpty
	ErrCannotConnectGrpc               = environment.ErrCannotConnectGrpc
	ErrCannotConnectRpc                = environment.ErrCannotConnectRpc
	ErrChainIdMismatch                 = environment.ErrChainIdMismatch
	ErrAddrNotInStore                  = environment.ErrAddrNotInStore
	ErrCodeIdNotInStore                = environment.ErrCodeIdNotInStore
	ErrStateReadOnly                   = environment.ErrStateReadOnly
	ErrStateIO                         = environment.ErrStateIO
	ErrTxFailed                        = environment.ErrTxFailed
	ErrTxNotFoundAfterBroadcast        = environment.ErrTxNotFoundAfterBroadcast
	ErrGasSimulationFailed             = environment.ErrGasSimulationFailed
	ErrInsufficientFee                 = environment.ErrInsufficientFee
	ErrNoChannelRegistered             = environment.ErrNoChannelRegistered
	ErrAmbiguousPacketMatch            = environment.ErrAmbiguousPacketMatch
	ErrChannelCreationEventsNotFound   = environment.ErrChannelCreationEventsNotFound
	ErrCounterpartyClientNotTendermint = environment.ErrCounterpartyClientNotTendermint
	ErrBech32Decode                    = environment.ErrBech32Decode
	ErrInvalidChecksum                 = environment.ErrInvalidChecksum
	ErrProtoDecode                     = environment.ErrProtoDecode
	ErrQuerierNeedsRuntime             = environment.ErrQuerierNeedsRuntime
	ErrUnsupportedOnBackend            = environment.ErrUnsupportedOnBackend
)

type (
	ChainIdMismatchError               = environment.ChainIdMismatchError
	AddrNotInStoreError                 = environment.AddrNotInStoreError
	CodeIdNotInStoreError               = environment.CodeIdNotInStoreError
	TxFailedError                       = environment.TxFailedError
	TxNotFoundAfterBroadcastError       = environment.TxNotFoundAfterBroadcastError
	NoChannelRegisteredError            = environment.NoChannelRegisteredError
	ChannelCreationEventsNotFoundError  = environment.ChannelCreationEventsNotFoundError
	UnsupportedOnBackendError           = environment.UnsupportedOnBackendError
)
