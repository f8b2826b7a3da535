package environment

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/b-harvest/cw-orch-go/pkg/cworch/state"
)

// MockEnv is the execution context handed to a MockContract call, mirroring
// the subset of cosmwasm_std::Env/MessageInfo a contract needs, grounded on
// original_source/packages/cw-orch-mock/src/core.rs.
type MockEnv struct {
	Sender   string
	Contract string
	Funds    []Coin
	Height   int64
	Time     time.Time
	ChainID  string
}

// MockResult is a contract call's outcome: the attributes it chooses to
// emit (appended to the response's "instantiate", "wasm" or "migrate"
// event, for Instantiate, Execute and Migrate respectively) plus optional
// binary response data.
type MockResult struct {
	Attributes []EventAttribute
	Data       []byte
}

// MockContract is a Go-native stand-in for a compiled CosmWasm contract.
// MockSim executes these directly instead of running actual wasm bytecode,
// the same trade-off cw-orch-mock makes by running cw-multi-test's
// ContractWrapper closures in-process rather than a wasm VM.
type MockContract interface {
	Instantiate(ctx context.Context, env MockEnv, msg json.RawMessage) (*MockResult, error)
	Execute(ctx context.Context, env MockEnv, msg json.RawMessage) (*MockResult, error)
	Query(ctx context.Context, env MockEnv, msg json.RawMessage) (json.RawMessage, error)
	Migrate(ctx context.Context, env MockEnv, msg json.RawMessage) (*MockResult, error)
}

// MockUploadable is the ArtifactSource variant MockSim.Upload requires: in
// addition to raw wasm bytes (kept so the same ArtifactSource can also
// target LiveDaemon), it must be able to produce a fresh MockContract
// instance per instantiation.
type MockUploadable interface {
	ArtifactSource
	NewMockContract() MockContract
}

type mockCodeEntry struct {
	source MockUploadable
	access *AccessConfig
}

type mockContractInstance struct {
	codeID   uint64
	admin    string
	contract MockContract
}

// MockSim is the in-process Environment backend used for fast, chain-free
// contract tests (spec.md §4.3's MockSim), grounded on
// cw-orch-mock/src/core.rs's MockBase but executing Go contract stand-ins
// instead of driving cw-multi-test's wasm VM.
type MockSim struct {
	mu sync.Mutex

	chainInfo *ChainInfo
	store     state.Store
	sender    string

	height    int64
	blockTime time.Time

	nextCodeID uint64
	codes      map[uint64]mockCodeEntry

	nextAddrSeq uint64
	contracts   map[string]*mockContractInstance

	balances map[string]map[string]sdkmath.Int
}

// NewMockSim constructs an empty MockSim whose sender is senderAddr.
func NewMockSim(chainInfo *ChainInfo, store state.Store, senderAddr string) *MockSim {
	return &MockSim{
		chainInfo:  chainInfo,
		store:      store,
		sender:     senderAddr,
		height:     1,
		blockTime:  time.Unix(1_700_000_000, 0).UTC(),
		nextCodeID: 1,
		codes:      make(map[uint64]mockCodeEntry),
		contracts:  make(map[string]*mockContractInstance),
		balances:   make(map[string]map[string]sdkmath.Int),
	}
}

// SetSender reassigns the address subsequent operations sign as.
func (m *MockSim) SetSender(addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sender = addr
}

// SetBalance overwrites addr's holdings, a test-setup convenience mirroring
// Mock::set_balance.
func (m *MockSim) SetBalance(addr string, funds []Coin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bal := make(map[string]sdkmath.Int, len(funds))
	for _, c := range funds {
		amt, ok := sdkmath.NewIntFromString(c.Amount)
		if !ok {
			return fmt.Errorf("environment: invalid coin amount %q", c.Amount)
		}
		bal[c.Denom] = amt
	}
	m.balances[addr] = bal
	return nil
}

func (m *MockSim) ChainInfo() *ChainInfo { return m.chainInfo }
func (m *MockSim) State() state.Store   { return m.store }
func (m *MockSim) Sender() string       { return m.sender }

func (m *MockSim) Upload(ctx context.Context, src ArtifactSource) (*TxResponse, error) {
	return m.UploadWithAccessConfig(ctx, src, nil)
}

func (m *MockSim) UploadWithAccessConfig(ctx context.Context, src ArtifactSource, access *AccessConfig) (*TxResponse, error) {
	uploadable, ok := src.(MockUploadable)
	if !ok {
		return nil, &UnsupportedOnBackendError{Backend: "MockSim", Op: "upload: ArtifactSource does not implement MockUploadable"}
	}

	m.mu.Lock()
	codeID := m.nextCodeID
	m.nextCodeID++
	m.codes[codeID] = mockCodeEntry{source: uploadable, access: access}
	m.mu.Unlock()

	return m.newResponse([]Event{
		{Type: "store_code", Attributes: []EventAttribute{{Key: "code_id", Value: fmt.Sprintf("%d", codeID)}}},
	}), nil
}

func (m *MockSim) Instantiate(ctx context.Context, codeID uint64, initMsg any, label, admin string, funds []Coin) (*TxResponse, error) {
	m.mu.Lock()
	m.nextAddrSeq++
	addr := fmt.Sprintf("mock1contract%d", m.nextAddrSeq)
	m.mu.Unlock()
	return m.instantiateAt(ctx, addr, codeID, initMsg, admin, funds)
}

// Instantiate2 derives addr deterministically over (checksum, creator, salt)
// (spec.md:109, Property 3: equal inputs yield equal outputs). It does not
// use querier.Instantiate2AddressFromChecksum, the wasmd derivation for the
// live backend: that helper requires a bech32 creator address, which
// MockSim's plain "mock1..." sender strings are not, so checksum || creator
// || salt is hashed directly here instead, and the resulting address
// differs from the one a live chain would assign.
func (m *MockSim) Instantiate2(ctx context.Context, codeID uint64, initMsg any, label, admin string, funds []Coin, salt []byte) (*TxResponse, error) {
	m.mu.Lock()
	entry, ok := m.codes[codeID]
	creator := m.sender
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: code id %d", ErrCodeIdNotInStore, codeID)
	}

	checksum, err := entry.source.Checksum(ctx)
	if err != nil {
		return nil, fmt.Errorf("environment: checksum code id %d: %w", codeID, err)
	}
	addr := mockInstantiate2Address(checksum, creator, salt)

	m.mu.Lock()
	if _, exists := m.contracts[addr]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("environment: instantiate2 address %s already in use", addr)
	}
	m.mu.Unlock()

	return m.instantiateAt(ctx, addr, codeID, initMsg, admin, funds)
}

// mockInstantiate2Address hashes (checksum, creator, salt) into a
// deterministic "mock1"-prefixed address: same inputs always produce the
// same address, different salts always produce different ones.
func mockInstantiate2Address(checksum []byte, creator string, salt []byte) string {
	h := sha256.New()
	h.Write(checksum)
	h.Write([]byte(creator))
	h.Write(salt)
	return fmt.Sprintf("mock1%x", h.Sum(nil))
}

func (m *MockSim) instantiateAt(ctx context.Context, addr string, codeID uint64, initMsg any, admin string, funds []Coin) (*TxResponse, error) {
	m.mu.Lock()
	entry, ok := m.codes[codeID]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: code id %d", ErrCodeIdNotInStore, codeID)
	}
	contract := entry.source.NewMockContract()
	m.contracts[addr] = &mockContractInstance{codeID: codeID, admin: admin, contract: contract}
	env := m.envLocked(addr, funds)
	m.mu.Unlock()

	if err := m.creditLocked(addr, funds); err != nil {
		return nil, err
	}

	msgBytes, err := json.Marshal(initMsg)
	if err != nil {
		return nil, fmt.Errorf("environment: marshal init msg: %w", err)
	}
	result, err := contract.Instantiate(ctx, env, msgBytes)
	if err != nil {
		return nil, fmt.Errorf("environment: instantiate: %w", err)
	}

	attrs := append([]EventAttribute{{Key: "_contract_address", Value: addr}, {Key: "code_id", Value: fmt.Sprintf("%d", codeID)}}, result.Attributes...)
	return m.newResponse([]Event{{Type: "instantiate", Attributes: attrs}}), nil
}

func (m *MockSim) Execute(ctx context.Context, execMsg any, funds []Coin, contractAddr string) (*TxResponse, error) {
	m.mu.Lock()
	inst, ok := m.contracts[contractAddr]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAddrNotInStore, contractAddr)
	}
	env := m.envLocked(contractAddr, funds)
	m.mu.Unlock()

	if err := m.creditLocked(contractAddr, funds); err != nil {
		return nil, err
	}

	msgBytes, err := json.Marshal(execMsg)
	if err != nil {
		return nil, fmt.Errorf("environment: marshal exec msg: %w", err)
	}
	result, err := inst.contract.Execute(ctx, env, msgBytes)
	if err != nil {
		return nil, fmt.Errorf("environment: execute: %w", err)
	}

	attrs := append([]EventAttribute{{Key: "_contract_address", Value: contractAddr}}, result.Attributes...)
	return m.newResponse([]Event{{Type: "wasm", Attributes: attrs}}), nil
}

func (m *MockSim) Migrate(ctx context.Context, migrateMsg any, newCodeID uint64, contractAddr string) (*TxResponse, error) {
	m.mu.Lock()
	inst, ok := m.contracts[contractAddr]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAddrNotInStore, contractAddr)
	}
	newEntry, ok := m.codes[newCodeID]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: code id %d", ErrCodeIdNotInStore, newCodeID)
	}
	env := m.envLocked(contractAddr, nil)
	m.mu.Unlock()

	msgBytes, err := json.Marshal(migrateMsg)
	if err != nil {
		return nil, fmt.Errorf("environment: marshal migrate msg: %w", err)
	}
	result, err := inst.contract.Migrate(ctx, env, msgBytes)
	if err != nil {
		return nil, fmt.Errorf("environment: migrate: %w", err)
	}

	m.mu.Lock()
	inst.codeID = newCodeID
	inst.contract = newEntry.source.NewMockContract()
	m.mu.Unlock()

	attrs := append([]EventAttribute{{Key: "_contract_address", Value: contractAddr}}, result.Attributes...)
	return m.newResponse([]Event{{Type: "migrate", Attributes: attrs}}), nil
}

func (m *MockSim) BankSend(ctx context.Context, to string, funds []Coin) (*TxResponse, error) {
	m.mu.Lock()
	from := m.sender
	m.mu.Unlock()
	if err := m.debitLocked(from, funds); err != nil {
		return nil, err
	}
	if err := m.creditLocked(to, funds); err != nil {
		return nil, err
	}
	return m.newResponse([]Event{
		{Type: "transfer", Attributes: []EventAttribute{{Key: "recipient", Value: to}, {Key: "sender", Value: from}}},
	}), nil
}

func (m *MockSim) Query(ctx context.Context, queryMsg any, contractAddr string, dst any) error {
	m.mu.Lock()
	inst, ok := m.contracts[contractAddr]
	env := m.envLocked(contractAddr, nil)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrAddrNotInStore, contractAddr)
	}

	msgBytes, err := json.Marshal(queryMsg)
	if err != nil {
		return fmt.Errorf("environment: marshal query msg: %w", err)
	}
	data, err := inst.contract.Query(ctx, env, msgBytes)
	if err != nil {
		return fmt.Errorf("environment: query: %w", err)
	}
	return json.Unmarshal(data, dst)
}

func (m *MockSim) WaitBlocks(ctx context.Context, n uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.height += int64(n)
	m.blockTime = m.blockTime.Add(time.Duration(n) * 5 * time.Second)
	return nil
}

func (m *MockSim) NextBlock(ctx context.Context) error { return m.WaitBlocks(ctx, 1) }

func (m *MockSim) WaitSeconds(ctx context.Context, seconds uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.height++
	m.blockTime = m.blockTime.Add(time.Duration(seconds) * time.Second)
	return nil
}

func (m *MockSim) BlockInfo(ctx context.Context) (BlockInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return BlockInfo{Height: m.height, Time: m.blockTime, ChainID: m.chainInfo.ChainID}, nil
}

// Balance returns addr's in-memory holdings, optionally filtered to denom.
func (m *MockSim) Balance(addr, denom string) []Coin {
	m.mu.Lock()
	defer m.mu.Unlock()
	bal := m.balances[addr]
	out := make([]Coin, 0, len(bal))
	for d, amt := range bal {
		if denom != "" && d != denom {
			continue
		}
		out = append(out, Coin{Denom: d, Amount: amt.String()})
	}
	return out
}

func (m *MockSim) envLocked(contract string, funds []Coin) MockEnv {
	return MockEnv{
		Sender:   m.sender,
		Contract: contract,
		Funds:    funds,
		Height:   m.height,
		Time:     m.blockTime,
		ChainID:  m.chainInfo.ChainID,
	}
}

func (m *MockSim) creditLocked(addr string, funds []Coin) error {
	if len(funds) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bal := m.balances[addr]
	if bal == nil {
		bal = make(map[string]sdkmath.Int)
		m.balances[addr] = bal
	}
	for _, c := range funds {
		amt, ok := sdkmath.NewIntFromString(c.Amount)
		if !ok {
			return fmt.Errorf("environment: invalid coin amount %q", c.Amount)
		}
		existing, ok := bal[c.Denom]
		if !ok {
			existing = sdkmath.ZeroInt()
		}
		bal[c.Denom] = existing.Add(amt)
	}
	return nil
}

func (m *MockSim) debitLocked(addr string, funds []Coin) error {
	if len(funds) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bal := m.balances[addr]
	for _, c := range funds {
		amt, ok := sdkmath.NewIntFromString(c.Amount)
		if !ok {
			return fmt.Errorf("environment: invalid coin amount %q", c.Amount)
		}
		existing, ok := bal[c.Denom]
		if !ok || existing.LT(amt) {
			return fmt.Errorf("environment: insufficient %s balance for %s", c.Denom, addr)
		}
		bal[c.Denom] = existing.Sub(amt)
	}
	return nil
}

func (m *MockSim) newResponse(events []Event) *TxResponse {
	m.mu.Lock()
	height := m.height
	m.mu.Unlock()
	return &TxResponse{
		Height:    height,
		TxHash:    "",
		Code:      0,
		Timestamp: m.blockTime,
		Events:    events,
	}
}

var _ Environment = (*MockSim)(nil)
