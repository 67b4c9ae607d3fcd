package pumpfun

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/Aybryan5/SniperBotSol/config"
	"github.com/Aybryan5/SniperBotSol/program"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func encodeCurve(t *testing.T, curve *BondingCurveLayout) []byte {
	buf := new(bytes.Buffer)
	require.NoError(t, binary.Write(buf, binary.LittleEndian, curve))
	require.Equal(t, BondingCurveLayoutSize, buf.Len())
	return buf.Bytes()
}

func newTestProgram(t *testing.T) *Program {
	config.LogPath = t.TempDir() + "/"
	p := NewProgram(nil)
	globalKey, err := DeriveGlobalAddress()
	require.NoError(t, err)
	p.global = &KeyedGlobal{
		Key: globalKey,
		GlobalLayout: GlobalLayout{
			Discriminator:  GlobalDiscriminator,
			Initialized:    1,
			FeeRecipient:   program.PumpFeeRecipient,
			FeeBasisPoints: 100,
		},
	}
	return p
}

func TestDecodeBondingCurve(t *testing.T) {
	want := testCurve()
	got, err := DecodeBondingCurve(encodeCurve(t, want))
	require.NoError(t, err)
	require.Equal(t, *want, got)
}

func TestDecodeBondingCurveShortData(t *testing.T) {
	_, err := DecodeBondingCurve(make([]byte, 10))
	require.ErrorIs(t, err, ErrDecode)
}

func TestDecodeBondingCurveBadDiscriminator(t *testing.T) {
	curve := testCurve()
	curve.Discriminator = [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	_, err := DecodeBondingCurve(encodeCurve(t, curve))
	require.ErrorIs(t, err, ErrDecode)
}

func TestDecodeGlobal(t *testing.T) {
	want := GlobalLayout{
		Discriminator:               GlobalDiscriminator,
		Initialized:                 1,
		Authority:                   solana.MustPublicKeyFromBase58("CebN5WGQ4jvEPvsVU4EoHEpgzq1VV7AbicfhtW4xC9iM"),
		FeeRecipient:                program.PumpFeeRecipient,
		InitialVirtualTokenReserves: 1_073_000_000_000_000,
		InitialVirtualSolReserves:   30_000_000_000,
		InitialRealTokenReserves:    793_100_000_000_000,
		TokenTotalSupply:            1_000_000_000_000_000,
		FeeBasisPoints:              100,
	}
	buf := new(bytes.Buffer)
	require.NoError(t, binary.Write(buf, binary.LittleEndian, &want))
	require.Equal(t, GlobalLayoutSize, buf.Len())
	got, err := DecodeGlobal(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestDeriveAddressesDeterministic(t *testing.T) {
	mint := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	first, err := DeriveBondingCurveAddress(mint)
	require.NoError(t, err)
	second, err := DeriveBondingCurveAddress(mint)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.False(t, first.IsZero())

	owner := solana.MustPublicKeyFromBase58("CebN5WGQ4jvEPvsVU4EoHEpgzq1VV7AbicfhtW4xC9iM")
	ata1, err := DeriveAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	ata2, err := DeriveAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	require.Equal(t, ata1, ata2)
	require.NotEqual(t, first, ata1)
}

func TestInstructionBuy(t *testing.T) {
	p := newTestProgram(t)
	mint := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	user := solana.MustPublicKeyFromBase58("CebN5WGQ4jvEPvsVU4EoHEpgzq1VV7AbicfhtW4xC9iM")
	curveKey, err := DeriveBondingCurveAddress(mint)
	require.NoError(t, err)
	ata, err := DeriveAssociatedTokenAddress(user, mint)
	require.NoError(t, err)
	curveAta, err := DeriveAssociatedTokenAddress(curveKey, mint)
	require.NoError(t, err)

	instruction, err := p.InstructionBuy(user, mint, curveKey, ata, 32_258_064, 1_050_000_000)
	require.NoError(t, err)
	require.Equal(t, program.Pump, instruction.ProgramID())

	accounts := instruction.Accounts()
	require.Len(t, accounts, 11)
	require.Equal(t, p.global.Key, accounts[0].PublicKey)
	require.Equal(t, p.feeRecipient, accounts[1].PublicKey)
	require.True(t, accounts[1].IsWritable)
	require.Equal(t, curveAta, accounts[2].PublicKey)
	require.True(t, accounts[2].IsWritable)
	require.Equal(t, ata, accounts[3].PublicKey)
	require.True(t, accounts[3].IsWritable)
	require.Equal(t, mint, accounts[4].PublicKey)
	require.Equal(t, curveKey, accounts[5].PublicKey)
	require.True(t, accounts[5].IsWritable)
	require.Equal(t, user, accounts[6].PublicKey)
	require.True(t, accounts[6].IsSigner)
	require.True(t, accounts[6].IsWritable)
	require.Equal(t, program.System, accounts[7].PublicKey)
	require.Equal(t, program.Token, accounts[8].PublicKey)
	require.Equal(t, program.SysRent, accounts[9].PublicKey)
	require.Equal(t, p.eventAuthority, accounts[10].PublicKey)

	data, err := instruction.Data()
	require.NoError(t, err)
	require.Len(t, data, 24)
	require.Equal(t, BuyDiscriminator[:], data[:8])
	require.Equal(t, uint64(32_258_064), binary.LittleEndian.Uint64(data[8:16]))
	require.Equal(t, uint64(1_050_000_000), binary.LittleEndian.Uint64(data[16:24]))
}

func TestInstructionSell(t *testing.T) {
	p := newTestProgram(t)
	mint := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	user := solana.MustPublicKeyFromBase58("CebN5WGQ4jvEPvsVU4EoHEpgzq1VV7AbicfhtW4xC9iM")
	curveKey, err := DeriveBondingCurveAddress(mint)
	require.NoError(t, err)
	ata, err := DeriveAssociatedTokenAddress(user, mint)
	require.NoError(t, err)

	instruction, err := p.InstructionSell(user, mint, curveKey, ata, 500_000, 14_100_449)
	require.NoError(t, err)
	data, err := instruction.Data()
	require.NoError(t, err)
	require.Equal(t, SellDiscriminator[:], data[:8])
	require.Equal(t, uint64(500_000), binary.LittleEndian.Uint64(data[8:16]))
	require.Equal(t, uint64(14_100_449), binary.LittleEndian.Uint64(data[16:24]))
}

func TestInstructionMissingAccounts(t *testing.T) {
	p := newTestProgram(t)
	mint := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	user := solana.MustPublicKeyFromBase58("CebN5WGQ4jvEPvsVU4EoHEpgzq1VV7AbicfhtW4xC9iM")
	curveKey, err := DeriveBondingCurveAddress(mint)
	require.NoError(t, err)
	ata, err := DeriveAssociatedTokenAddress(user, mint)
	require.NoError(t, err)

	_, err = p.InstructionBuy(user, mint, solana.PublicKey{}, ata, 1, 1)
	require.ErrorIs(t, err, ErrMissingAccount)
	_, err = p.InstructionBuy(user, mint, curveKey, solana.PublicKey{}, 1, 1)
	require.ErrorIs(t, err, ErrMissingAccount)
	_, err = p.InstructionSell(solana.PublicKey{}, mint, curveKey, ata, 1, 1)
	require.ErrorIs(t, err, ErrMissingAccount)

	p.global = nil
	_, err = p.InstructionBuy(user, mint, curveKey, ata, 1, 1)
	require.ErrorIs(t, err, ErrMissingAccount)
}
