package environment

import (
	"context"
	"time"

	"github.com/b-harvest/cw-orch-go/pkg/cworch/state"
)

// Coin is a denom/amount pair used across every write operation an
// Environment exposes.
type Coin struct {
	Denom  string
	Amount string
}

// AccessConfig restricts who may instantiate a stored code-id, mirroring
// wasmtypes.AccessConfig's three permission tiers.
type AccessConfig struct {
	Permission AccessType
	Addresses  []string
}

// AccessType mirrors wasmtypes.AccessType without importing wasmd's proto
// package into this interface.
type AccessType int

const (
	AccessTypeUnspecified AccessType = iota
	AccessTypeNobody
	AccessTypeOnlyAddress
	AccessTypeEverybody
	AccessTypeAnyOfAddresses
)

// ArtifactSource is the collaborator seam between a ContractHandle and
// wherever its compiled wasm bytecode lives: a file on disk, an embedded
// asset, or an in-memory buffer built for a test. LiveDaemon and
// OnChainCaller read the bytes into a MsgStoreCode; MockSim and ForkedSim,
// which never execute real wasm, ignore the bytes and only use Checksum.
type ArtifactSource interface {
	// Wasm returns the compiled contract bytecode.
	Wasm(ctx context.Context) ([]byte, error)
	// Checksum returns the sha256 checksum of the bytecode, computing it
	// from Wasm if the source doesn't already know it.
	Checksum(ctx context.Context) ([]byte, error)
}

// Environment is the polymorphic execution backend a ContractHandle is
// bound to (LiveDaemon, MockSim, ForkedSim, OnChainCaller). All message
// parameters are typed any at this boundary; ContractHandle's generic type
// parameters provide the compile-time typing its callers see.
type Environment interface {
	// ChainInfo returns the immutable descriptor of the chain this
	// environment targets.
	ChainInfo() *ChainInfo

	// State returns the L1 deployment state store backing this environment.
	State() state.Store

	// Upload stores a contract's bytecode and returns the resulting
	// code-id via the returned TxResponse's UploadedCodeID.
	Upload(ctx context.Context, src ArtifactSource) (*TxResponse, error)

	// UploadWithAccessConfig is Upload with an explicit instantiate
	// permission; nil means the chain's default (usually AccessTypeEverybody).
	UploadWithAccessConfig(ctx context.Context, src ArtifactSource, access *AccessConfig) (*TxResponse, error)

	// Instantiate deploys a new instance of codeID at a chain-assigned
	// address.
	Instantiate(ctx context.Context, codeID uint64, initMsg any, label, admin string, funds []Coin) (*TxResponse, error)

	// Instantiate2 deploys a new instance at the deterministic address
	// derived from (codeID, creator, salt).
	Instantiate2(ctx context.Context, codeID uint64, initMsg any, label, admin string, funds []Coin, salt []byte) (*TxResponse, error)

	// Execute sends execMsg to contractAddr.
	Execute(ctx context.Context, execMsg any, funds []Coin, contractAddr string) (*TxResponse, error)

	// Migrate upgrades contractAddr to newCodeID.
	Migrate(ctx context.Context, migrateMsg any, newCodeID uint64, contractAddr string) (*TxResponse, error)

	// BankSend transfers funds from this environment's sender to to.
	BankSend(ctx context.Context, to string, funds []Coin) (*TxResponse, error)

	// Query runs a smart query against contractAddr and decodes the
	// response into dst.
	Query(ctx context.Context, queryMsg any, contractAddr string, dst any) error

	// WaitBlocks blocks until n additional blocks have been produced.
	WaitBlocks(ctx context.Context, n uint64) error

	// WaitSeconds blocks until at least the given wall-clock duration has
	// elapsed (live chains) or has been fast-forwarded (simulators).
	WaitSeconds(ctx context.Context, seconds uint64) error

	// NextBlock advances exactly one block.
	NextBlock(ctx context.Context) error

	// BlockInfo returns the current block height/time.
	BlockInfo(ctx context.Context) (BlockInfo, error)

	// Sender returns the bech32 address transactions are signed and
	// broadcast from.
	Sender() string
}

// BlockInfo is the subset of chain head state every backend can report,
// mirroring querier.BlockInfo (this package does not import querier to
// avoid coupling every backend to a gRPC-based querier; LiveDaemon adapts
// at its boundary).
type BlockInfo struct {
	Height  int64
	Time    time.Time
	ChainID string
}
