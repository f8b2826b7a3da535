package cworch

import (
	"context"
	"errors"

	"github.com/b-harvest/cw-orch-go/pkg/cworch/environment"
	"github.com/b-harvest/cw-orch-go/pkg/cworch/state"
)

// Coin is a denom/amount pair, re-exported for callers that only need the
// handle surface and not the full environment package.
type Coin = environment.Coin

// ContractHandle is a typed reference to a deployed or deployable contract
// (spec.md §3). The four type parameters bind the wire schemas the handle
// accepts at compile time; Go has no phantom-type sugar so they are carried
// as real type parameters on the handle itself, matching the "thread the
// schemas as runtime values... and validate on every call" guidance in
// spec.md §9 for dynamic targets — here the compiler does the validation,
// so no runtime schema check is needed.
type ContractHandle[InitMsg, ExecMsg, QueryMsg, MigrateMsg any] struct {
	contractID string
	env        environment.Environment
}

// NewContractHandle binds a contract-id to an environment. CodeID and
// Address are populated lazily by Upload/Instantiate and are otherwise read
// from the environment's L1 state store (spec.md §3 "Lifecycle").
func NewContractHandle[InitMsg, ExecMsg, QueryMsg, MigrateMsg any](contractID string, env environment.Environment) *ContractHandle[InitMsg, ExecMsg, QueryMsg, MigrateMsg] {
	return &ContractHandle[InitMsg, ExecMsg, QueryMsg, MigrateMsg]{contractID: contractID, env: env}
}

// ContractID returns the stable identifier bound to this handle.
func (h *ContractHandle[InitMsg, ExecMsg, QueryMsg, MigrateMsg]) ContractID() string { return h.contractID }

// Environment returns the backend this handle is bound to.
func (h *ContractHandle[InitMsg, ExecMsg, QueryMsg, MigrateMsg]) Environment() environment.Environment { return h.env }

// CodeID returns the code-id recorded for this contract in L1, or
// CodeIdNotInStoreError if upload has not yet happened.
func (h *ContractHandle[InitMsg, ExecMsg, QueryMsg, MigrateMsg]) CodeID(ctx context.Context) (uint64, error) {
	codeID, err := h.env.State().GetCodeID(h.contractID)
	if errors.Is(err, state.ErrNotFound) {
		return 0, &environment.CodeIdNotInStoreError{ContractID: h.contractID}
	}
	return codeID, err
}

// Address returns the deployed address recorded for this contract in L1, or
// AddrNotInStoreError if instantiate has not yet happened.
func (h *ContractHandle[InitMsg, ExecMsg, QueryMsg, MigrateMsg]) Address(ctx context.Context) (string, error) {
	addr, err := h.env.State().GetAddress(h.contractID)
	if errors.Is(err, state.ErrNotFound) {
		return "", &environment.AddrNotInStoreError{ContractID: h.contractID}
	}
	return addr, err
}

// Upload stores the contract's compiled artifact (or, on sim backends, its
// in-process entry points) and records the resulting code-id under this
// handle's contract-id.
func (h *ContractHandle[InitMsg, ExecMsg, QueryMsg, MigrateMsg]) Upload(ctx context.Context, src environment.ArtifactSource) (*TxResponse, error) {
	resp, err := h.env.Upload(ctx, src)
	if err != nil {
		return nil, err
	}
	if codeID, ok := resp.UploadedCodeID(); ok {
		if err := h.env.State().SetCodeID(h.contractID, codeID); err != nil {
			return resp, err
		}
	}
	return resp, nil
}

// InstantiateOptions configures a non-deterministic instantiate.
type InstantiateOptions struct {
	Label string
	Admin string
	Funds []Coin
}

// Instantiate deploys a new instance of this contract's code and records
// the resulting address under this handle's contract-id. Label defaults to
// "instantiate_contract" per spec.md §4.5.
func (h *ContractHandle[InitMsg, ExecMsg, QueryMsg, MigrateMsg]) Instantiate(ctx context.Context, initMsg *InitMsg, opts InstantiateOptions) (*TxResponse, error) {
	codeID, err := h.CodeID(ctx)
	if err != nil {
		return nil, err
	}
	label := opts.Label
	if label == "" {
		label = "instantiate_contract"
	}
	resp, err := h.env.Instantiate(ctx, codeID, initMsg, label, opts.Admin, opts.Funds)
	if err != nil {
		return nil, err
	}
	if addr, ok := resp.InstantiatedAddress(); ok {
		if err := h.env.State().SetAddress(h.contractID, addr); err != nil {
			return resp, err
		}
	}
	return resp, nil
}

// Instantiate2 deploys a new instance at a deterministic address derived
// from (code_id, creator, salt) (spec.md §3, §4.5, §8 Property 3).
func (h *ContractHandle[InitMsg, ExecMsg, QueryMsg, MigrateMsg]) Instantiate2(ctx context.Context, initMsg *InitMsg, opts InstantiateOptions, salt []byte) (*TxResponse, error) {
	codeID, err := h.CodeID(ctx)
	if err != nil {
		return nil, err
	}
	label := opts.Label
	if label == "" {
		label = "instantiate_contract"
	}
	resp, err := h.env.Instantiate2(ctx, codeID, initMsg, label, opts.Admin, opts.Funds, salt)
	if err != nil {
		return nil, err
	}
	if addr, ok := resp.InstantiatedAddress(); ok {
		if err := h.env.State().SetAddress(h.contractID, addr); err != nil {
			return resp, err
		}
	}
	return resp, nil
}

// Execute sends ExecMsg to the deployed contract.
func (h *ContractHandle[InitMsg, ExecMsg, QueryMsg, MigrateMsg]) Execute(ctx context.Context, execMsg *ExecMsg, funds []Coin) (*TxResponse, error) {
	addr, err := h.Address(ctx)
	if err != nil {
		return nil, err
	}
	return h.env.Execute(ctx, execMsg, funds, addr)
}

// Migrate upgrades the deployed contract to newCodeID.
func (h *ContractHandle[InitMsg, ExecMsg, QueryMsg, MigrateMsg]) Migrate(ctx context.Context, migrateMsg *MigrateMsg, newCodeID uint64) (*TxResponse, error) {
	addr, err := h.Address(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := h.env.Migrate(ctx, migrateMsg, newCodeID, addr)
	if err != nil {
		return nil, err
	}
	if err := h.env.State().SetCodeID(h.contractID, newCodeID); err != nil {
		return resp, err
	}
	return resp, nil
}

// Query performs a smart query against the deployed contract and decodes
// the response into dst.
func (h *ContractHandle[InitMsg, ExecMsg, QueryMsg, MigrateMsg]) Query(ctx context.Context, queryMsg *QueryMsg, dst any) error {
	addr, err := h.Address(ctx)
	if err != nil {
		return err
	}
	return h.env.Query(ctx, queryMsg, addr, dst)
}
