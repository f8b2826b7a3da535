package sender

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestBuilder(t *testing.T, feeDenom string, minGasPrice float64) *TxBuilder {
	t.Helper()
	wallet, err := NewWalletFromPrivKeyBytes(make([]byte, 32), "cosmos")
	require.NoError(t, err)
	// nil *grpc.ClientConn is safe here: NewAuth/NewNode only wrap the
	// conn, they don't dial until an RPC method is actually invoked, and
	// calculateFee never reaches them.
	return NewTxBuilder(nil, "localnet-1", wallet, feeDenom, minGasPrice)
}

func TestCalculateFee_CeilsToWholeUnit(t *testing.T) {
	b := newTestBuilder(t, "uatom", 0.025)
	fee := b.calculateFee(200_000)
	require.Equal(t, "5000uatom", fee.String())
}

func TestCalculateFee_RoundsUpFractional(t *testing.T) {
	b := newTestBuilder(t, "untrn", 0.01)
	fee := b.calculateFee(150_001)
	// 150001 * 0.01 = 1500.01 -> ceil to 1501
	require.Equal(t, "1501untrn", fee.String())
}

func TestWithGasAdjustment_Overrides(t *testing.T) {
	b := newTestBuilder(t, "uatom", 0.025)
	require.InDelta(t, defaultGasAdjustment, b.gasAdjustment, 0.0001)
	b.WithGasAdjustment(2.0)
	require.InDelta(t, 2.0, b.gasAdjustment, 0.0001)
}
