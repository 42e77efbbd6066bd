package gateway

import (
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestReallocateSelectorDerivation(t *testing.T) {
	digest := ethcrypto.Keccak256([]byte("reallocate(uint8,uint64,uint64)"))
	var expected [4]byte
	copy(expected[:], digest[:4])
	require.Equal(t, expected, ReallocateSelector)
}

func TestReallocationDigestBindsAllFields(t *testing.T) {
	base := ReallocationDigest("main", 1, 50, 5, "nonce-1")
	require.Equal(t, base, ReallocationDigest("main", 1, 50, 5, "nonce-1"))

	require.NotEqual(t, base, ReallocationDigest("other", 1, 50, 5, "nonce-1"))
	require.NotEqual(t, base, ReallocationDigest("main", 2, 50, 5, "nonce-1"))
	require.NotEqual(t, base, ReallocationDigest("main", 1, 51, 5, "nonce-1"))
	require.NotEqual(t, base, ReallocationDigest("main", 1, 50, 6, "nonce-1"))
	require.NotEqual(t, base, ReallocationDigest("main", 1, 50, 5, "nonce-2"))
}
