package cworch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTimestamp_RoundTripsAllFourFormats(t *testing.T) {
	ref := time.Date(2024, 3, 14, 9, 26, 53, 0, time.UTC)

	cases := []string{
		ref.Format(time.RFC3339Nano),
		ref.Format(time.RFC3339),
		ref.Format("2006-01-02 15:04:05"),
	}
	for _, s := range cases {
		got := ParseTimestamp(s)
		require.Equal(t, ref.Unix(), got.Unix(), "input %q", s)
	}

	unixSecs := ParseTimestamp("1710408413")
	require.Equal(t, int64(1710408413), unixSecs.Unix())
}

func TestParseTimestamp_UnparsableReturnsZeroTime(t *testing.T) {
	require.True(t, ParseTimestamp("not-a-timestamp").IsZero())
	require.True(t, ParseTimestamp("").IsZero())
}

func TestFormatTimestamp_UsesCanonicalLayout(t *testing.T) {
	ref := time.Date(2024, 3, 14, 9, 26, 53, 0, time.UTC)
	require.Equal(t, ref.Format(time.RFC3339Nano), FormatTimestamp(ref))
}

func TestTxResponse_UploadedCodeID(t *testing.T) {
	resp := &TxResponse{
		Events: []Event{
			{Type: "store_code", Attributes: []EventAttribute{{Key: "code_id", Value: "42"}}},
		},
	}
	id, ok := resp.UploadedCodeID()
	require.True(t, ok)
	require.Equal(t, uint64(42), id)
}

func TestTxResponse_UploadedCodeID_Absent(t *testing.T) {
	resp := &TxResponse{}
	_, ok := resp.UploadedCodeID()
	require.False(t, ok)
}

func TestTxResponse_InstantiatedAddress_FirstMatchWins(t *testing.T) {
	resp := &TxResponse{
		Events: []Event{
			{Type: "instantiate", Attributes: []EventAttribute{{Key: "_contract_address", Value: "cosmos1aaa"}}},
			{Type: "instantiate", Attributes: []EventAttribute{{Key: "_contract_address", Value: "cosmos1bbb"}}},
		},
	}
	addr, ok := resp.InstantiatedAddress()
	require.True(t, ok)
	require.Equal(t, "cosmos1aaa", addr)
}

func TestTxResponse_Succeeded(t *testing.T) {
	require.True(t, (&TxResponse{Code: 0}).Succeeded())
	require.False(t, (&TxResponse{Code: 5}).Succeeded())
}
