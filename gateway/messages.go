package gateway

import (
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// ReallocationDomainV1 is the domain separator agents sign under when
// proposing a reallocation through the gateway.
const ReallocationDomainV1 = "YV_REALLOCATE_V1"

const reallocateMethod = "reallocate(uint8,uint64,uint64)"

// ReallocateSelector is the function selector session grants must name to
// authorise the reallocation entry point.
var ReallocateSelector = computeSelector(reallocateMethod)

func computeSelector(method string) [4]byte {
	digest := ethcrypto.Keccak256([]byte(method))
	var selector [4]byte
	copy(selector[:], digest[:4])
	return selector
}

// ReallocationDigest renders the canonical reallocation message and hashes
// it. The agent signs this digest; the gateway recomputes it from the request
// fields so the signature binds every parameter.
func ReallocationDigest(vaultID string, target uint8, gainBps, costBps uint64, nonce string) [32]byte {
	message := fmt.Sprintf("%s|vault=%s|target=%d|gain=%d|cost=%d|nonce=%s",
		ReallocationDomainV1, vaultID, target, gainBps, costBps, nonce)
	digest := ethcrypto.Keccak256([]byte(message))
	var out [32]byte
	copy(out[:], digest)
	return out
}
