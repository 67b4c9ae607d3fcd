package pumpfun

import (
	"errors"

	"github.com/gagliardetto/solana-go"
)

var (
	BondingCurveLayoutSize = 49
	GlobalLayoutSize       = 113
)

// Anchor account discriminators (sha256("account:<Name>")[:8]).
var (
	BondingCurveDiscriminator = [8]byte{23, 183, 248, 55, 96, 216, 172, 96}
	GlobalDiscriminator       = [8]byte{167, 232, 232, 177, 200, 108, 114, 127}
)

// Anchor instruction discriminators (sha256("global:<name>")[:8]).
var (
	BuyDiscriminator  = [8]byte{102, 6, 61, 18, 1, 218, 235, 234}
	SellDiscriminator = [8]byte{51, 230, 133, 164, 1, 127, 131, 173}
)

var (
	// ErrCurveClosed means the curve graduated; no further price computation
	// is valid on it.
	ErrCurveClosed = errors.New("bonding curve is complete")
	// ErrDecode covers malformed or unexpected account bytes.
	ErrDecode = errors.New("account data is not valid")
	// ErrOverflow means an intermediate or final amount does not fit uint64.
	ErrOverflow = errors.New("amount overflow")
	// ErrMissingAccount means instruction assembly was attempted with an
	// unresolved address.
	ErrMissingAccount = errors.New("required account is not resolved")
)

// BondingCurveLayout is the per-mint curve state, 49 bytes little-endian.
// A snapshot is fetched fresh before every trade decision and never mutated.
type BondingCurveLayout struct {
	Discriminator        [8]byte
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             uint8
}

// GlobalLayout is the program-wide configuration, 113 bytes little-endian.
// Fetched once at startup; the authority may rotate it afterwards, which this
// process does not try to detect.
type GlobalLayout struct {
	Discriminator               [8]byte
	Initialized                 uint8
	Authority                   solana.PublicKey
	FeeRecipient                solana.PublicKey
	InitialVirtualTokenReserves uint64
	InitialVirtualSolReserves   uint64
	InitialRealTokenReserves    uint64
	TokenTotalSupply            uint64
	FeeBasisPoints              uint64
}

type KeyedBondingCurve struct {
	Key    solana.PublicKey
	Height uint64
	BondingCurveLayout
}

type KeyedGlobal struct {
	Key    solana.PublicKey
	Height uint64
	GlobalLayout
}
