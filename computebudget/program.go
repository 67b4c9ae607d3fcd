package computebudget

import (
	"encoding/binary"

	"github.com/Aybryan5/SniperBotSol/program"
	"github.com/gagliardetto/solana-go"
)

// Compute budget instruction tags.
const (
	setComputeUnitLimit = 2
	setComputeUnitPrice = 3
)

// InstructionSetComputeUnitPrice attaches a priority fee, in microlamports
// per compute unit, to improve inclusion odds.
func InstructionSetComputeUnitPrice(microLamports uint64) solana.Instruction {
	data := make([]byte, 9)
	data[0] = setComputeUnitPrice
	binary.LittleEndian.PutUint64(data[1:], microLamports)
	return &program.Instruction{
		IsAccounts:  []*solana.AccountMeta{},
		IsData:      data,
		IsProgramID: program.ComputeBudget,
	}
}

func InstructionSetComputeUnitLimit(units uint32) solana.Instruction {
	data := make([]byte, 5)
	data[0] = setComputeUnitLimit
	binary.LittleEndian.PutUint32(data[1:], units)
	return &program.Instruction{
		IsAccounts:  []*solana.AccountMeta{},
		IsData:      data,
		IsProgramID: program.ComputeBudget,
	}
}
