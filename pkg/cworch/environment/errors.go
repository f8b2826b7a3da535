// Package environment implements the polymorphic L4 execution backends
// (LiveDaemon, MockSim, ForkedSim, OnChainCaller) a ContractHandle is bound
// to, plus the domain types (TxResponse, Coin, ChainInfo) and error
// taxonomy shared across the state store, queriers and senders.
package environment

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is. Each has a companion typed error
// below that carries additional context; the typed error's Unwrap returns
// the sentinel.
var (
	ErrGrpcListEmpty                  = errors.New("grpc url list is empty")
	ErrCannotConnectGrpc               = errors.New("could not connect to any grpc endpoint")
	ErrCannotConnectRpc                = errors.New("could not connect to rpc endpoint")
	ErrChainIdMismatch                 = errors.New("advertised chain-id does not match expected chain-id")
	ErrAddrNotInStore                  = errors.New("contract address not found in state store")
	ErrCodeIdNotInStore                = errors.New("code id not found in state store")
	ErrStateReadOnly                   = errors.New("state store is read-only")
	ErrStateIO                         = errors.New("state store io error")
	ErrTxFailed                        = errors.New("transaction failed on chain")
	ErrTxNotFoundAfterBroadcast        = errors.New("transaction not found after broadcast")
	ErrGasSimulationFailed             = errors.New("gas simulation failed")
	ErrInsufficientFee                 = errors.New("insufficient fee")
	ErrNoChannelRegistered             = errors.New("no ibc channel registered between chains")
	ErrAmbiguousPacketMatch            = errors.New("ambiguous packet match")
	ErrChannelCreationEventsNotFound   = errors.New("channel creation events not found")
	ErrCounterpartyClientNotTendermint = errors.New("counterparty client state is not a tendermint client")
	ErrBech32Decode                    = errors.New("bech32 decode error")
	ErrInvalidChecksum                 = errors.New("invalid checksum")
	ErrProtoDecode                     = errors.New("proto decode error")
	ErrQuerierNeedsRuntime             = errors.New("querier needs a runtime handle for blocking calls")
	ErrUnsupportedOnBackend            = errors.New("operation unsupported on this environment backend")
)

// ChainIdMismatchError carries the expected vs. observed chain-id.
type ChainIdMismatchError struct {
	Expected string
	Got      string
}

func (e *ChainIdMismatchError) Error() string {
	return fmt.Sprintf("chain-id mismatch: expected %q, got %q", e.Expected, e.Got)
}

func (e *ChainIdMismatchError) Unwrap() error { return ErrChainIdMismatch }

// AddrNotInStoreError names the contract-id that has no stored address.
type AddrNotInStoreError struct {
	ContractID string
}

func (e *AddrNotInStoreError) Error() string {
	return fmt.Sprintf("no address stored for contract %q", e.ContractID)
}

func (e *AddrNotInStoreError) Unwrap() error { return ErrAddrNotInStore }

// CodeIdNotInStoreError names the contract-id that has no stored code-id.
type CodeIdNotInStoreError struct {
	ContractID string
}

func (e *CodeIdNotInStoreError) Error() string {
	return fmt.Sprintf("no code id stored for contract %q", e.ContractID)
}

func (e *CodeIdNotInStoreError) Unwrap() error { return ErrCodeIdNotInStore }

// TxFailedError is surfaced for any transaction whose ABCI code is
// non-zero. This is a deterministic application error and is never retried.
type TxFailedError struct {
	Code   uint32
	RawLog string
}

func (e *TxFailedError) Error() string {
	return fmt.Sprintf("tx failed with code %d: %s", e.Code, e.RawLog)
}

func (e *TxFailedError) Unwrap() error { return ErrTxFailed }

// TxNotFoundAfterBroadcastError reports a tx hash that never appeared
// within the confirmation polling bound.
type TxNotFoundAfterBroadcastError struct {
	Hash     string
	Attempts int
}

func (e *TxNotFoundAfterBroadcastError) Error() string {
	return fmt.Sprintf("tx %s not found after %d confirmation attempts", e.Hash, e.Attempts)
}

func (e *TxNotFoundAfterBroadcastError) Unwrap() error { return ErrTxNotFoundAfterBroadcast }

// NoChannelRegisteredError names the two chain-ids with no known channel.
type NoChannelRegisteredError struct {
	Src, Dst string
}

func (e *NoChannelRegisteredError) Error() string {
	return fmt.Sprintf("no ibc channel registered between %q and %q", e.Src, e.Dst)
}

func (e *NoChannelRegisteredError) Unwrap() error { return ErrNoChannelRegistered }

// ChannelCreationEventsNotFoundError reports the retry bound was exhausted
// while discovering the channel_open_ack or channel_open_confirm
// handshake transaction.
type ChannelCreationEventsNotFoundError struct {
	ChainID      string
	ConnectionID string
	Retries      int
}

func (e *ChannelCreationEventsNotFoundError) Error() string {
	return fmt.Sprintf("channel creation events not found on chain %q (connection %q) after %d retries",
		e.ChainID, e.ConnectionID, e.Retries)
}

func (e *ChannelCreationEventsNotFoundError) Unwrap() error {
	return ErrChannelCreationEventsNotFound
}

// UnsupportedOnBackendError reports a write/block-control method invoked on
// a backend that cannot support it (e.g. OnChainCaller.WaitBlocks).
type UnsupportedOnBackendError struct {
	Op      string
	Backend string
}

func (e *UnsupportedOnBackendError) Error() string {
	return fmt.Sprintf("operation %q is unsupported on backend %q", e.Op, e.Backend)
}

func (e *UnsupportedOnBackendError) Unwrap() error { return ErrUnsupportedOnBackend }
