package state

import "strings"

var (
	vaultStatePrefix    = []byte("vault/state/")
	vaultPositionPrefix = []byte("vault/position/")
	accountPrefix       = []byte("account/")
	grantPrefix         = []byte("session/grant/")
	grantIndexKey       = []byte("session/grant/index")
)

func vaultStateKey(vaultID string) []byte {
	trimmed := strings.TrimSpace(vaultID)
	buf := make([]byte, len(vaultStatePrefix)+len(trimmed))
	copy(buf, vaultStatePrefix)
	copy(buf[len(vaultStatePrefix):], trimmed)
	return buf
}

func vaultPositionKey(vaultID string, addr []byte) []byte {
	trimmed := strings.TrimSpace(vaultID)
	buf := make([]byte, 0, len(vaultPositionPrefix)+len(trimmed)+1+len(addr))
	buf = append(buf, vaultPositionPrefix...)
	buf = append(buf, trimmed...)
	buf = append(buf, '/')
	buf = append(buf, addr...)
	return buf
}

func accountKey(addr []byte) []byte {
	buf := make([]byte, len(accountPrefix)+len(addr))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], addr)
	return buf
}

func grantKey(keyID [32]byte) []byte {
	buf := make([]byte, len(grantPrefix)+len(keyID))
	copy(buf, grantPrefix)
	copy(buf[len(grantPrefix):], keyID[:])
	return buf
}
