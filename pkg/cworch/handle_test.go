package cworch

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/b-harvest/cw-orch-go/pkg/cworch/environment"
	"github.com/b-harvest/cw-orch-go/pkg/cworch/state"
)

type counterContract struct{ count int64 }

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

func (c *counterContract) Instantiate(_ context.Context, _ environment.MockEnv, msg json.RawMessage) (*environment.MockResult, error) {
	var init counterInitMsg
	if err := json.Unmarshal(msg, &init); err != nil {
		return nil, err
	}
	c.count = init.Start
	return &environment.MockResult{}, nil
}

func (c *counterContract) Execute(_ context.Context, _ environment.MockEnv, msg json.RawMessage) (*environment.MockResult, error) {
	var exec counterExecMsg
	if err := json.Unmarshal(msg, &exec); err != nil {
		return nil, err
	}
	if exec.Increment != nil {
		c.count++
	}
	return &environment.MockResult{}, nil
}

func (c *counterContract) Query(_ context.Context, _ environment.MockEnv, msg json.RawMessage) (json.RawMessage, error) {
	return json.Marshal(counterQueryResp{Count: c.count})
}

func (c *counterContract) Migrate(_ context.Context, _ environment.MockEnv, msg json.RawMessage) (*environment.MockResult, error) {
	return &environment.MockResult{}, nil
}

type counterSource struct{}

func (counterSource) Wasm(_ context.Context) ([]byte, error)     { return []byte("counter"), nil }
func (counterSource) Checksum(_ context.Context) ([]byte, error) { return []byte("abc123"), nil }
func (counterSource) NewMockContract() environment.MockContract  { return &counterContract{} }

func newTestHandleEnv(t *testing.T) environment.Environment {
	t.Helper()
	chainInfo, err := environment.NewChainInfo(environment.ChainInfo{
		ChainID:   "mock-1",
		ChainName: "mock",
		Kind:      environment.Local,
		FeeTokens: []environment.FeeToken{{Denom: "umock", MinGasPrice: 0.025}},
	})
	require.NoError(t, err)

	store := state.NewFileStore(filepath.Join(t.TempDir(), "state.json"), "mock", "mock-1", "default", true, false)
	return environment.NewMockSim(chainInfo, store, "mock1sender")
}

func TestContractHandle_FullRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newTestHandleEnv(t)
	handle := NewContractHandle[counterInitMsg, counterExecMsg, counterQueryMsg, counterQueryResp]("counter", env)

	_, err := handle.CodeID(ctx)
	require.Error(t, err)
	var codeIDErr *environment.CodeIdNotInStoreError
	require.ErrorAs(t, err, &codeIDErr)

	uploadResp, err := handle.Upload(ctx, counterSource{})
	require.NoError(t, err)
	require.True(t, uploadResp.Succeeded())

	codeID, err := handle.CodeID(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), codeID)

	initResp, err := handle.Instantiate(ctx, &counterInitMsg{Start: 5}, InstantiateOptions{Admin: "mock1sender"})
	require.NoError(t, err)
	require.True(t, initResp.Succeeded())

	addr, err := handle.Address(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, addr)

	_, err = handle.Execute(ctx, &counterExecMsg{Increment: &struct{}{}}, nil)
	require.NoError(t, err)

	var resp counterQueryResp
	err = handle.Query(ctx, &counterQueryMsg{Count: &struct{}{}}, &resp)
	require.NoError(t, err)
	require.Equal(t, int64(6), resp.Count)
}

func TestContractHandle_AddressBeforeInstantiateFails(t *testing.T) {
	env := newTestHandleEnv(t)
	handle := NewContractHandle[counterInitMsg, counterExecMsg, counterQueryMsg, counterQueryResp]("counter", env)

	_, err := handle.Address(context.Background())
	require.Error(t, err)
	var addrErr *environment.AddrNotInStoreError
	require.ErrorAs(t, err, &addrErr)
}

func TestContractHandle_InstantiateDefaultsLabel(t *testing.T) {
	ctx := context.Background()
	env := newTestHandleEnv(t)
	handle := NewContractHandle[counterInitMsg, counterExecMsg, counterQueryMsg, counterQueryResp]("counter", env)

	_, err := handle.Upload(ctx, counterSource{})
	require.NoError(t, err)

	resp, err := handle.Instantiate(ctx, &counterInitMsg{Start: 0}, InstantiateOptions{})
	require.NoError(t, err)
	require.True(t, resp.Succeeded())
}
