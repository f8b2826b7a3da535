package querier

import (
	"context"
	"fmt"

	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"google.golang.org/grpc"
)

// BaseAccountInfo is the subset of x/auth account state the sender needs to
// build a transaction: the account number and sequence (nonce).
type BaseAccountInfo struct {
	Address       string
	AccountNumber uint64
	Sequence      uint64
	PubKeyBytes   []byte
}

// Auth is the read-only capability over the x/auth module (spec.md §4.2,
// used by the L3 Sender to fetch account-number/sequence before signing).
type Auth struct {
	runtime *Runtime
	client  authtypes.QueryClient
}

// NewAuth constructs an async-only Auth querier.
func NewAuth(conn *grpc.ClientConn) *Auth {
	return &Auth{client: authtypes.NewQueryClient(conn)}
}

// NewAuthSync additionally enables blocking methods via rt.
func NewAuthSync(conn *grpc.ClientConn, rt *Runtime) *Auth {
	return &Auth{client: authtypes.NewQueryClient(conn), runtime: rt}
}

// BaseAccount returns the account-number/sequence pair for addr.
func (a *Auth) BaseAccount(ctx context.Context, addr string) (BaseAccountInfo, error) {
	resp, err := a.client.Account(ctx, &authtypes.QueryAccountRequest{Address: addr})
	if err != nil {
		return BaseAccountInfo{}, err
	}
	var base authtypes.BaseAccount
	if err := base.Unmarshal(resp.Account.Value); err != nil {
		return BaseAccountInfo{}, fmt.Errorf("querier: decode base account: %w", err)
	}
	var pubKeyBytes []byte
	if base.PubKey != nil {
		pubKeyBytes = base.PubKey.Value
	}
	return BaseAccountInfo{
		Address:       base.Address,
		AccountNumber: base.AccountNumber,
		Sequence:      base.Sequence,
		PubKeyBytes:   pubKeyBytes,
	}, nil
}

// BaseAccountBlocking is the sync-over-async sibling of BaseAccount.
func (a *Auth) BaseAccountBlocking(addr string) (BaseAccountInfo, error) {
	return callBlocking(a.runtime, func(ctx context.Context) (BaseAccountInfo, error) {
		return a.BaseAccount(ctx, addr)
	})
}
