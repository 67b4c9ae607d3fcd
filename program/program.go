package program

import "github.com/gagliardetto/solana-go"

var (
	// Pump is the bonding curve AMM this bot trades against.
	Pump               = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
	PumpFeeRecipient   = solana.MustPublicKeyFromBase58("CebN5WGQ4jvEPvsVU4EoHEpgzq1VV7AbicfhtW4xC9iM")
	PumpEventAuthority = solana.MustPublicKeyFromBase58("Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1")

	Token           = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedToken = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	System          = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	ComputeBudget   = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")
	SysRent         = solana.MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")
)

var (
	WrappedSol = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
)

const (
	LamportsPerSol = uint64(1000000000)
)
