package vault

import "errors"

var (
	// ErrNilState indicates the engine was used before wiring a state store.
	ErrNilState = errors.New("vault engine: state not configured")
	// ErrInvalidAdapter indicates a zero or unset adapter reference.
	ErrInvalidAdapter = errors.New("vault engine: invalid adapter")
	// ErrInvalidAmount indicates a nil, zero or negative amount.
	ErrInvalidAmount = errors.New("vault engine: amount must be positive")
	// ErrInvalidReceiver indicates a zero receiver identity.
	ErrInvalidReceiver = errors.New("vault engine: receiver not set")
	// ErrInsufficientBalance indicates the depositor cannot fund the deposit.
	ErrInsufficientBalance = errors.New("vault engine: insufficient balance")
	// ErrInsufficientShares indicates the owner's shares cannot cover the
	// requested withdrawal at the current conversion rate.
	ErrInsufficientShares = errors.New("vault engine: insufficient shares")
	// ErrInsufficientYieldGain indicates the proposed gain is below the
	// minimum threshold.
	ErrInsufficientYieldGain = errors.New("vault engine: yield gain below threshold")
	// ErrGasCostTooHigh indicates the proposed cost exceeds the maximum
	// threshold.
	ErrGasCostTooHigh = errors.New("vault engine: gas cost above threshold")
	// ErrNoFundsToRebalance indicates the vault holds no assets to move.
	ErrNoFundsToRebalance = errors.New("vault engine: no funds to rebalance")
	// ErrSharesUnbacked indicates shares are outstanding while the vault
	// holds no assets, so a deposit cannot be priced.
	ErrSharesUnbacked = errors.New("vault engine: outstanding shares have no backing assets")
	// ErrUnauthorized indicates a privileged call from a non-owner.
	ErrUnauthorized = errors.New("vault engine: caller is not the owner")
	// ErrPaused indicates a mutating call while the vault is paused.
	ErrPaused = errors.New("vault engine: vault paused")
	// ErrReentrantCall indicates an entry point was invoked while another
	// mutating operation was still in flight.
	ErrReentrantCall = errors.New("vault engine: reentrant call rejected")
)
