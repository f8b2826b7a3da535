package sender

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testMnemonic = "notice oak worry limit wrap speak medal online prefer cluster roof addict wrist behave treat actual wasp year salad speed social layer crew genius"

func TestNewWalletFromMnemonic_Deterministic(t *testing.T) {
	w1, err := NewWalletFromMnemonic(testMnemonic, 118, "cosmos")
	require.NoError(t, err)
	w2, err := NewWalletFromMnemonic(testMnemonic, 118, "cosmos")
	require.NoError(t, err)

	require.Equal(t, w1.Address(), w2.Address())
	require.NotEmpty(t, w1.Address())
}

func TestNewWalletFromMnemonic_DifferentCoinTypeDifferentAddress(t *testing.T) {
	cosmos, err := NewWalletFromMnemonic(testMnemonic, 118, "cosmos")
	require.NoError(t, err)
	other, err := NewWalletFromMnemonic(testMnemonic, 330, "terra")
	require.NoError(t, err)

	require.NotEqual(t, cosmos.Address(), other.Address())
}

func TestNewWalletFromMnemonic_RejectsInvalidMnemonic(t *testing.T) {
	_, err := NewWalletFromMnemonic("not a real mnemonic", 118, "cosmos")
	require.Error(t, err)
}

func TestNewWalletFromPrivKeyBytes_RejectsBadLength(t *testing.T) {
	_, err := NewWalletFromPrivKeyBytes([]byte{0x01, 0x02}, "cosmos")
	require.Error(t, err)
}

func TestWallet_AddressUsesConfiguredPrefix(t *testing.T) {
	w, err := NewWalletFromPrivKeyBytes(make([]byte, 32), "juno")
	require.NoError(t, err)
	require.Contains(t, w.Address(), "juno1")
}
