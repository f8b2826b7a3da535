package environment

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

type counterContract struct {
	count int64
}

type counterInitMsg struct {
	Start int64 `json:"start"`
}

type counterExecMsg struct {
	Increment *struct{} `json:"increment,omitempty"`
}

type counterQueryMsg struct {
	Count *struct{} `json:"count,omitempty"`
}

type counterQueryResp struct {
	Count int64 `json:"count"`
}

func (c *counterContract) Instantiate(_ context.Context, _ MockEnv, msg json.RawMessage) (*MockResult, error) {
	var init counterInitMsg
	if err := json.Unmarshal(msg, &init); err != nil {
		return nil, err
	}
	c.count = init.Start
	return &MockResult{}, nil
}

func (c *counterContract) Execute(_ context.Context, _ MockEnv, msg json.RawMessage) (*MockResult, error) {
	var exec counterExecMsg
	if err := json.Unmarshal(msg, &exec); err != nil {
		return nil, err
	}
	if exec.Increment != nil {
		c.count++
	}
	return &MockResult{Attributes: []EventAttribute{{Key: "action", Value: "increment"}}}, nil
}

func (c *counterContract) Query(_ context.Context, _ MockEnv, msg json.RawMessage) (json.RawMessage, error) {
	var q counterQueryMsg
	if err := json.Unmarshal(msg, &q); err != nil {
		return nil, err
	}
	return json.Marshal(counterQueryResp{Count: c.count})
}

func (c *counterContract) Migrate(_ context.Context, _ MockEnv, msg json.RawMessage) (*MockResult, error) {
	return &MockResult{}, nil
}

type counterSource struct{}

func (counterSource) Wasm(_ context.Context) ([]byte, error) { return []byte("mock-counter"), nil }
func (counterSource) Checksum(_ context.Context) ([]byte, error) {
	sum := sha256.Sum256([]byte("mock-counter"))
	return sum[:], nil
}
func (counterSource) NewMockContract() MockContract { return &counterContract{} }

func newTestMockSim(t *testing.T) *MockSim {
	t.Helper()
	chainInfo := &ChainInfo{ChainID: "mock-1", FeeTokens: []FeeToken{{Denom: "umock", MinGasPrice: 0.025}}}
	return NewMockSim(chainInfo, nil, "mock1sender")
}

func TestMockSim_UploadInstantiateExecuteQuery(t *testing.T) {
	ctx := context.Background()
	chain := newTestMockSim(t)

	uploadResp, err := chain.Upload(ctx, counterSource{})
	require.NoError(t, err)
	codeID, ok := uploadResp.UploadedCodeID()
	require.True(t, ok)
	require.Equal(t, uint64(1), codeID)

	initResp, err := chain.Instantiate(ctx, codeID, counterInitMsg{Start: 10}, "counter", "mock1sender", nil)
	require.NoError(t, err)
	addr, ok := initResp.InstantiatedAddress()
	require.True(t, ok)
	require.NotEmpty(t, addr)

	_, err = chain.Execute(ctx, counterExecMsg{Increment: &struct{}{}}, nil, addr)
	require.NoError(t, err)

	var resp counterQueryResp
	err = chain.Query(ctx, counterQueryMsg{Count: &struct{}{}}, addr, &resp)
	require.NoError(t, err)
	require.Equal(t, int64(11), resp.Count)
}

func TestMockSim_ExecuteUnknownAddressFails(t *testing.T) {
	chain := newTestMockSim(t)
	_, err := chain.Execute(context.Background(), counterExecMsg{}, nil, "mock1nope")
	require.ErrorIs(t, err, ErrAddrNotInStore)
}

func TestMockSim_Instantiate2SameInputsYieldSameAddress(t *testing.T) {
	ctx := context.Background()
	chainA := newTestMockSim(t)
	chainB := newTestMockSim(t)

	codeA, err := chainA.Upload(ctx, counterSource{})
	require.NoError(t, err)
	codeAID, _ := codeA.UploadedCodeID()
	codeB, err := chainB.Upload(ctx, counterSource{})
	require.NoError(t, err)
	codeBID, _ := codeB.UploadedCodeID()

	salt := []byte("same-salt")
	respA, err := chainA.Instantiate2(ctx, codeAID, counterInitMsg{Start: 1}, "counter", "mock1sender", nil, salt)
	require.NoError(t, err)
	respB, err := chainB.Instantiate2(ctx, codeBID, counterInitMsg{Start: 1}, "counter", "mock1sender", nil, salt)
	require.NoError(t, err)

	addrA, ok := respA.InstantiatedAddress()
	require.True(t, ok)
	addrB, ok := respB.InstantiatedAddress()
	require.True(t, ok)
	require.Equal(t, addrA, addrB)
}

func TestMockSim_Instantiate2DifferentSaltsYieldDifferentAddresses(t *testing.T) {
	ctx := context.Background()
	chain := newTestMockSim(t)

	uploadResp, err := chain.Upload(ctx, counterSource{})
	require.NoError(t, err)
	codeID, _ := uploadResp.UploadedCodeID()

	respA, err := chain.Instantiate2(ctx, codeID, counterInitMsg{Start: 1}, "counter", "mock1sender", nil, []byte("salt-a"))
	require.NoError(t, err)
	respB, err := chain.Instantiate2(ctx, codeID, counterInitMsg{Start: 1}, "counter", "mock1sender", nil, []byte("salt-b"))
	require.NoError(t, err)

	addrA, _ := respA.InstantiatedAddress()
	addrB, _ := respB.InstantiatedAddress()
	require.NotEqual(t, addrA, addrB)
}

func TestMockSim_Instantiate2DuplicateSaltFails(t *testing.T) {
	ctx := context.Background()
	chain := newTestMockSim(t)

	uploadResp, err := chain.Upload(ctx, counterSource{})
	require.NoError(t, err)
	codeID, _ := uploadResp.UploadedCodeID()

	_, err = chain.Instantiate2(ctx, codeID, counterInitMsg{Start: 1}, "counter", "mock1sender", nil, []byte("dup-salt"))
	require.NoError(t, err)
	_, err = chain.Instantiate2(ctx, codeID, counterInitMsg{Start: 1}, "counter", "mock1sender", nil, []byte("dup-salt"))
	require.Error(t, err)
}

func TestMockSim_InstantiateUnknownCodeIDFails(t *testing.T) {
	chain := newTestMockSim(t)
	_, err := chain.Instantiate(context.Background(), 999, counterInitMsg{}, "x", "mock1sender", nil)
	require.ErrorIs(t, err, ErrCodeIdNotInStore)
}

func TestMockSim_BankSendMovesBalance(t *testing.T) {
	ctx := context.Background()
	chain := newTestMockSim(t)
	require.NoError(t, chain.SetBalance("mock1sender", []Coin{{Denom: "umock", Amount: "100"}}))

	_, err := chain.BankSend(ctx, "mock1recipient", []Coin{{Denom: "umock", Amount: "40"}})
	require.NoError(t, err)

	require.Equal(t, []Coin{{Denom: "umock", Amount: "60"}}, chain.Balance("mock1sender", ""))
	require.Equal(t, []Coin{{Denom: "umock", Amount: "40"}}, chain.Balance("mock1recipient", ""))
}

func TestMockSim_BankSendInsufficientBalanceFails(t *testing.T) {
	chain := newTestMockSim(t)
	_, err := chain.BankSend(context.Background(), "mock1recipient", []Coin{{Denom: "umock", Amount: "5"}})
	require.Error(t, err)
}

func TestMockSim_WaitBlocksAdvancesHeight(t *testing.T) {
	ctx := context.Background()
	chain := newTestMockSim(t)
	before, err := chain.BlockInfo(ctx)
	require.NoError(t, err)

	require.NoError(t, chain.WaitBlocks(ctx, 5))

	after, err := chain.BlockInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, before.Height+5, after.Height)
	require.True(t, after.Time.After(before.Time))
}
