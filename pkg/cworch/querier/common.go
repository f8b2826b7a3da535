package querier

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/query"
)

// sdkCoin aliases the SDK's Coin type so the conversion helpers in bank.go
// read naturally without every caller importing the SDK types package
// directly.
type sdkCoin = sdk.Coin

// paginationFor builds a single-page PageRequest continuing from pageKey,
// or the first page if pageKey is empty. Only DenomsMetadata uses it; the
// other list queries in this package send no pagination request.
func paginationFor(pageKey []byte) *query.PageRequest {
	return &query.PageRequest{Key: pageKey, Limit: 100}
}
