package session

import "errors"

var (
	// ErrNilState indicates the registry was used before wiring a state store.
	ErrNilState = errors.New("session registry: state not configured")
	// ErrInvalidSessionKey indicates a zero session key identity at grant time.
	ErrInvalidSessionKey = errors.New("session registry: session key not set")
	// ErrInvalidTarget indicates a zero target identity at grant time.
	ErrInvalidTarget = errors.New("session registry: target not set")
	// ErrInvalidWindow indicates an inverted or already-expired validity window.
	ErrInvalidWindow = errors.New("session registry: invalid validity window")
	// ErrDuplicateGrant indicates a grant with the same derived keyID exists.
	ErrDuplicateGrant = errors.New("session registry: duplicate grant")
	// ErrKeyNotFound indicates no grant exists under the given keyID.
	ErrKeyNotFound = errors.New("session registry: session key not found")
	// ErrKeyNotActive indicates the grant has been revoked.
	ErrKeyNotActive = errors.New("session registry: session key not active")
	// ErrKeyNotYetValid indicates the grant window has not opened.
	ErrKeyNotYetValid = errors.New("session registry: session key not yet valid")
	// ErrKeyExpired indicates the grant window has closed.
	ErrKeyExpired = errors.New("session registry: session key expired")
	// ErrTxLimitExceeded indicates the transaction budget is exhausted.
	ErrTxLimitExceeded = errors.New("session registry: transaction limit exceeded")
	// ErrValueLimitExceeded indicates the requested value exceeds the grant cap.
	ErrValueLimitExceeded = errors.New("session registry: value limit exceeded")
	// ErrUnauthorizedTarget indicates the requested target does not match.
	ErrUnauthorizedTarget = errors.New("session registry: unauthorized target")
	// ErrUnauthorizedFunction indicates the requested selector does not match.
	ErrUnauthorizedFunction = errors.New("session registry: unauthorized function")
	// ErrInvalidSignature indicates the signature does not recover to the
	// grant's session key.
	ErrInvalidSignature = errors.New("session registry: invalid signature")
	// ErrUnauthorized indicates a revocation attempt by neither the granter
	// nor the registry owner.
	ErrUnauthorized = errors.New("session registry: caller may not revoke this grant")
	// ErrReentrantCall indicates an entry point was invoked while another
	// mutating operation was still in flight.
	ErrReentrantCall = errors.New("session registry: reentrant call rejected")
)
