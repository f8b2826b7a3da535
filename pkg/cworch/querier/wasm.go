package querier

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	"google.golang.org/grpc"
)

// ContractInfo mirrors the subset of wasmtypes.ContractInfo the spec calls
// out explicitly (spec.md §4.2).
type ContractInfo struct {
	CodeID  uint64
	Creator string
	Admin   string
	IBCPort string
}

// CodeInfo mirrors the subset of wasmtypes.CodeInfoResponse the spec calls
// out explicitly.
type CodeInfo struct {
	Checksum []byte
	Creator  string
}

// Wasm is the read-only capability over the x/wasm module (spec.md §4.2).
type Wasm struct {
	runtime *Runtime
	client  wasmtypes.QueryClient
}

// NewWasm constructs an async-only Wasm querier.
func NewWasm(conn *grpc.ClientConn) *Wasm {
	return &Wasm{client: wasmtypes.NewQueryClient(conn)}
}

// NewWasmSync additionally enables blocking methods via rt.
func NewWasmSync(conn *grpc.ClientConn, rt *Runtime) *Wasm {
	return &Wasm{client: wasmtypes.NewQueryClient(conn), runtime: rt}
}

// CodeIDHash returns the sha256 checksum of the wasm blob stored under
// codeID (spec.md §4.2, Testable Property 5).
func (w *Wasm) CodeIDHash(ctx context.Context, codeID uint64) ([]byte, error) {
	info, err := w.Code(ctx, codeID)
	if err != nil {
		return nil, err
	}
	return info.Checksum, nil
}

// CodeIDHashBlocking is the sync-over-async sibling of CodeIDHash.
func (w *Wasm) CodeIDHashBlocking(codeID uint64) ([]byte, error) {
	return callBlocking(w.runtime, func(ctx context.Context) ([]byte, error) {
		return w.CodeIDHash(ctx, codeID)
	})
}

// ContractInfoQuery returns the on-chain metadata for addr.
func (w *Wasm) ContractInfoQuery(ctx context.Context, addr string) (ContractInfo, error) {
	resp, err := w.client.ContractInfo(ctx, &wasmtypes.QueryContractInfoRequest{Address: addr})
	if err != nil {
		return ContractInfo{}, err
	}
	return ContractInfo{
		CodeID:  resp.ContractInfo.CodeID,
		Creator: resp.ContractInfo.Creator,
		Admin:   resp.ContractInfo.Admin,
		IBCPort: resp.ContractInfo.IBCPortID,
	}, nil
}

// ContractInfoQueryBlocking is the sync-over-async sibling of ContractInfoQuery.
func (w *Wasm) ContractInfoQueryBlocking(addr string) (ContractInfo, error) {
	return callBlocking(w.runtime, func(ctx context.Context) (ContractInfo, error) {
		return w.ContractInfoQuery(ctx, addr)
	})
}

// RawQuery returns the raw contract-storage value under key.
func (w *Wasm) RawQuery(ctx context.Context, addr string, key []byte) ([]byte, error) {
	resp, err := w.client.RawContractState(ctx, &wasmtypes.QueryRawContractStateRequest{
		Address:   addr,
		QueryData: key,
	})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// RawQueryBlocking is the sync-over-async sibling of RawQuery.
func (w *Wasm) RawQueryBlocking(addr string, key []byte) ([]byte, error) {
	return callBlocking(w.runtime, func(ctx context.Context) ([]byte, error) {
		return w.RawQuery(ctx, addr, key)
	})
}

// SmartQuery runs msg against addr's contract query entry point and returns
// the raw JSON response bytes; the caller unmarshals into T.
func (w *Wasm) SmartQuery(ctx context.Context, addr string, msg []byte) ([]byte, error) {
	resp, err := w.client.SmartContractState(ctx, &wasmtypes.QuerySmartContractStateRequest{
		Address:   addr,
		QueryData: msg,
	})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// SmartQueryBlocking is the sync-over-async sibling of SmartQuery.
func (w *Wasm) SmartQueryBlocking(addr string, msg []byte) ([]byte, error) {
	return callBlocking(w.runtime, func(ctx context.Context) ([]byte, error) {
		return w.SmartQuery(ctx, addr, msg)
	})
}

// Code returns the checksum and creator recorded for codeID.
func (w *Wasm) Code(ctx context.Context, codeID uint64) (CodeInfo, error) {
	resp, err := w.client.Code(ctx, &wasmtypes.QueryCodeRequest{CodeId: codeID})
	if err != nil {
		return CodeInfo{}, err
	}
	return CodeInfo{Checksum: resp.CodeInfoResponse.DataHash, Creator: resp.CodeInfoResponse.Creator}, nil
}

// CodeBlocking is the sync-over-async sibling of Code.
func (w *Wasm) CodeBlocking(codeID uint64) (CodeInfo, error) {
	return callBlocking(w.runtime, func(ctx context.Context) (CodeInfo, error) {
		return w.Code(ctx, codeID)
	})
}

// Instantiate2Address computes the deterministic contract address for
// MsgInstantiateContract2, over (checksum, canonical_creator, salt)
// (spec.md §4.2, §8 Property 3). It queries the chain for the code's
// checksum, then delegates to the pure derivation in Instantiate2AddressFromChecksum
// so the two can be tested independently.
func (w *Wasm) Instantiate2Address(ctx context.Context, codeID uint64, creator string, salt []byte) (string, error) {
	checksum, err := w.CodeIDHash(ctx, codeID)
	if err != nil {
		return "", err
	}
	return Instantiate2AddressFromChecksum(checksum, creator, salt)
}

// Instantiate2AddressBlocking is the sync-over-async sibling of
// Instantiate2Address.
func (w *Wasm) Instantiate2AddressBlocking(codeID uint64, creator string, salt []byte) (string, error) {
	return callBlocking(w.runtime, func(ctx context.Context) (string, error) {
		return w.Instantiate2Address(ctx, codeID, creator, salt)
	})
}

// wasmModuleName is the address.Module namespace wasmd derives
// instantiate2 addresses under.
const wasmModuleName = "wasm"

// Instantiate2AddressFromChecksum is the pure half of Instantiate2Address:
// given a code checksum, bech32 creator and salt, it derives the resulting
// contract address exactly as wasmd's
// keeper.BuildContractAddressPredictable does (ADR-028 module-derived
// addressing: preimage = checksum||creator||salt||msg, each component
// prefixed with its length as an 8-byte big-endian uint64, hashed under the
// "wasm" module namespace), so it is equal-input/equal-output pure
// (spec.md §8 Property 3) and testable without a chain. msg is empty here
// because the contract address does not depend on the init message.
func Instantiate2AddressFromChecksum(checksum []byte, creator string, salt []byte) (string, error) {
	if len(checksum) != 32 {
		return "", fmt.Errorf("querier: instantiate2 checksum must be 32 bytes, got %d", len(checksum))
	}
	creatorAddr, err := sdk.AccAddressFromBech32(creator)
	if err != nil {
		return "", fmt.Errorf("querier: decode creator bech32: %w", err)
	}

	// The trailing nil component is the empty init message (length 0).
	preimage := make([]byte, 0, 4*8+len(checksum)+len(creatorAddr)+len(salt))
	for _, part := range [][]byte{checksum, creatorAddr, salt, nil} {
		preimage = binary.BigEndian.AppendUint64(preimage, uint64(len(part)))
		preimage = append(preimage, part...)
	}

	addrBytes := moduleDerivedAddress(wasmModuleName, preimage)
	addr := sdk.AccAddress(addrBytes)
	return addr.String(), nil
}

// moduleDerivedAddress implements the ADR-028 "Module" derivation:
// addr = SHA256( SHA256("module") || moduleName || 0x00 || key ).
func moduleDerivedAddress(moduleName string, key []byte) []byte {
	mKey := append([]byte(moduleName), 0)
	return addressHash("module", append(mKey, key...))
}

// addressHash is ADR-028's double-hash construction:
// SHA256( SHA256(typ) || key ).
func addressHash(typ string, key []byte) []byte {
	typHash := sha256.Sum256([]byte(typ))
	h := sha256.New()
	h.Write(typHash[:])
	h.Write(key)
	return h.Sum(nil)
}
