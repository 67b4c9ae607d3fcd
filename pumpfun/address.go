package pumpfun

import (
	"github.com/Aybryan5/SniperBotSol/program"
	"github.com/gagliardetto/solana-go"
)

var (
	bondingCurveSeed = []byte("bonding-curve")
	globalSeed       = []byte("global")
)

// DeriveBondingCurveAddress derives the program-owned curve account for a
// mint. Pure function of its inputs; whether the account exists on-chain is
// the caller's problem.
func DeriveBondingCurveAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	address, _, err := solana.FindProgramAddress(
		[][]byte{bondingCurveSeed, mint.Bytes()},
		program.Pump,
	)
	return address, err
}

// DeriveGlobalAddress derives the program-wide configuration account.
func DeriveGlobalAddress() (solana.PublicKey, error) {
	address, _, err := solana.FindProgramAddress(
		[][]byte{globalSeed},
		program.Pump,
	)
	return address, err
}

// DeriveAssociatedTokenAddress derives the canonical holding account of
// owner for mint. Works for curve PDAs as owners too.
func DeriveAssociatedTokenAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	address, _, err := solana.FindProgramAddress(
		[][]byte{owner.Bytes(), program.Token.Bytes(), mint.Bytes()},
		program.AssociatedToken,
	)
	return address, err
}
