package session

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"yieldvault/crypto"
)

// DeriveKeyID computes the deterministic grant identifier. Two grants with
// identical parameters derive the same keyID, which makes re-granting the
// exact same capability idempotent by construction.
func DeriveKeyID(granter, sessionKey, target crypto.Address, selector [4]byte, validAfter, validUntil uint64) [32]byte {
	var window [16]byte
	binary.BigEndian.PutUint64(window[:8], validAfter)
	binary.BigEndian.PutUint64(window[8:], validUntil)
	digest := ethcrypto.Keccak256(
		granter.Bytes(),
		sessionKey.Bytes(),
		target.Bytes(),
		selector[:],
		window[:],
	)
	var keyID [32]byte
	copy(keyID[:], digest)
	return keyID
}
