package querier

import (
	"context"

	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	"google.golang.org/grpc"
)

// Coin mirrors sdk.Coin without pulling in the full SDK Coin arithmetic
// surface; conversions happen at the querier boundary.
type Coin struct {
	Denom  string
	Amount string
}

// Bank is the read-only capability over the x/bank module (spec.md §4.2).
type Bank struct {
	runtime *Runtime
	client  banktypes.QueryClient
}

// NewBank constructs an async-only Bank querier from a gRPC channel.
func NewBank(conn *grpc.ClientConn) *Bank {
	return &Bank{client: banktypes.NewQueryClient(conn)}
}

// NewBankSync additionally enables blocking methods via rt.
func NewBankSync(conn *grpc.ClientConn, rt *Runtime) *Bank {
	return &Bank{client: banktypes.NewQueryClient(conn), runtime: rt}
}

// Balance returns the addr's balance, optionally filtered to one denom.
func (b *Bank) Balance(ctx context.Context, addr string, denom string) ([]Coin, error) {
	if denom != "" {
		resp, err := b.client.Balance(ctx, &banktypes.QueryBalanceRequest{Address: addr, Denom: denom})
		if err != nil {
			return nil, err
		}
		if resp.Balance == nil {
			return nil, nil
		}
		return []Coin{{Denom: resp.Balance.Denom, Amount: resp.Balance.Amount.String()}}, nil
	}
	resp, err := b.client.AllBalances(ctx, &banktypes.QueryAllBalancesRequest{Address: addr})
	if err != nil {
		return nil, err
	}
	return toCoins(resp.Balances), nil
}

// BalanceBlocking is the sync-over-async sibling of Balance.
func (b *Bank) BalanceBlocking(addr, denom string) ([]Coin, error) {
	return callBlocking(b.runtime, func(ctx context.Context) ([]Coin, error) {
		return b.Balance(ctx, addr, denom)
	})
}

// SpendableBalances returns addr's spendable balances (excludes vesting
// locked amounts).
func (b *Bank) SpendableBalances(ctx context.Context, addr string) ([]Coin, error) {
	resp, err := b.client.SpendableBalances(ctx, &banktypes.QuerySpendableBalancesRequest{Address: addr})
	if err != nil {
		return nil, err
	}
	return toCoins(resp.Balances), nil
}

// SpendableBalancesBlocking is the sync-over-async sibling of SpendableBalances.
func (b *Bank) SpendableBalancesBlocking(addr string) ([]Coin, error) {
	return callBlocking(b.runtime, func(ctx context.Context) ([]Coin, error) {
		return b.SpendableBalances(ctx, addr)
	})
}

// TotalSupply returns the total supply across all denoms.
func (b *Bank) TotalSupply(ctx context.Context) ([]Coin, error) {
	resp, err := b.client.TotalSupply(ctx, &banktypes.QueryTotalSupplyRequest{})
	if err != nil {
		return nil, err
	}
	return toCoins(resp.Supply), nil
}

// TotalSupplyBlocking is the sync-over-async sibling of TotalSupply.
func (b *Bank) TotalSupplyBlocking() ([]Coin, error) {
	return callBlocking(b.runtime, b.TotalSupply)
}

// SupplyOf returns the total supply of a single denom.
func (b *Bank) SupplyOf(ctx context.Context, denom string) (Coin, error) {
	resp, err := b.client.SupplyOf(ctx, &banktypes.QuerySupplyOfRequest{Denom: denom})
	if err != nil {
		return Coin{}, err
	}
	return Coin{Denom: resp.Amount.Denom, Amount: resp.Amount.Amount.String()}, nil
}

// SupplyOfBlocking is the sync-over-async sibling of SupplyOf.
func (b *Bank) SupplyOfBlocking(denom string) (Coin, error) {
	return callBlocking(b.runtime, func(ctx context.Context) (Coin, error) {
		return b.SupplyOf(ctx, denom)
	})
}

// DenomMetadata returns the display/display-exponent metadata for a denom.
func (b *Bank) DenomMetadata(ctx context.Context, denom string) (banktypes.Metadata, error) {
	resp, err := b.client.DenomMetadata(ctx, &banktypes.QueryDenomMetadataRequest{Denom: denom})
	if err != nil {
		return banktypes.Metadata{}, err
	}
	return resp.Metadata, nil
}

// DenomMetadataBlocking is the sync-over-async sibling of DenomMetadata.
func (b *Bank) DenomMetadataBlocking(denom string) (banktypes.Metadata, error) {
	return callBlocking(b.runtime, func(ctx context.Context) (banktypes.Metadata, error) {
		return b.DenomMetadata(ctx, denom)
	})
}

// DenomsMetadataPage is one page of DenomsMetadata results.
type DenomsMetadataPage struct {
	Metadata   []banktypes.Metadata
	NextPageKey []byte
}

// DenomsMetadata returns a page of all registered denom metadata.
func (b *Bank) DenomsMetadata(ctx context.Context, pageKey []byte) (DenomsMetadataPage, error) {
	resp, err := b.client.DenomsMetadata(ctx, &banktypes.QueryDenomsMetadataRequest{
		Pagination: paginationFor(pageKey),
	})
	if err != nil {
		return DenomsMetadataPage{}, err
	}
	page := DenomsMetadataPage{Metadata: resp.Metadatas}
	if resp.Pagination != nil {
		page.NextPageKey = resp.Pagination.NextKey
	}
	return page, nil
}

// DenomsMetadataBlocking is the sync-over-async sibling of DenomsMetadata.
func (b *Bank) DenomsMetadataBlocking(pageKey []byte) (DenomsMetadataPage, error) {
	return callBlocking(b.runtime, func(ctx context.Context) (DenomsMetadataPage, error) {
		return b.DenomsMetadata(ctx, pageKey)
	})
}

func toCoins(src []sdkCoin) []Coin {
	out := make([]Coin, 0, len(src))
	for _, c := range src {
		out = append(out, Coin{Denom: c.Denom, Amount: c.Amount.String()})
	}
	return out
}
