package querier

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testCreator = "cosmos1qyfkm2y3qk0zfw9w9tcjc00skhz44c8c8w2mp3"

func TestInstantiate2AddressFromChecksum_Deterministic(t *testing.T) {
	checksum := make([]byte, 32)
	for i := range checksum {
		checksum[i] = byte(i)
	}
	salt := []byte{0x01, 0x02, 0x03}

	addr1, err := Instantiate2AddressFromChecksum(checksum, testCreator, salt)
	require.NoError(t, err)
	addr2, err := Instantiate2AddressFromChecksum(checksum, testCreator, salt)
	require.NoError(t, err)

	require.Equal(t, addr1, addr2)
	require.NotEmpty(t, addr1)
}

func TestInstantiate2AddressFromChecksum_DifferentSaltDifferentAddress(t *testing.T) {
	checksum := make([]byte, 32)
	addrA, err := Instantiate2AddressFromChecksum(checksum, testCreator, []byte{0x01})
	require.NoError(t, err)
	addrB, err := Instantiate2AddressFromChecksum(checksum, testCreator, []byte{0x02})
	require.NoError(t, err)

	require.NotEqual(t, addrA, addrB)
}

func TestInstantiate2AddressFromChecksum_RejectsBadChecksumLength(t *testing.T) {
	_, err := Instantiate2AddressFromChecksum([]byte{0x01}, testCreator, nil)
	require.Error(t, err)
}

func TestInstantiate2AddressFromChecksum_RejectsBadCreator(t *testing.T) {
	checksum := make([]byte, 32)
	_, err := Instantiate2AddressFromChecksum(checksum, "not-bech32", nil)
	require.Error(t, err)
}
