package pumpfun

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"

	"github.com/Aybryan5/SniperBotSol/backend"
	"github.com/Aybryan5/SniperBotSol/config"
	"github.com/Aybryan5/SniperBotSol/program"
	"github.com/Aybryan5/SniperBotSol/utils"
	"github.com/gagliardetto/solana-go"
)

// Backend is the slice of the ledger gateway this program needs.
type Backend interface {
	Account(pubkey solana.PublicKey) (*backend.Account, error)
}

type Program struct {
	backend        Backend
	log            *log.Logger
	id             solana.PublicKey
	feeRecipient   solana.PublicKey
	eventAuthority solana.PublicKey
	global         *KeyedGlobal
}

func NewProgram(be Backend) *Program {
	p := &Program{
		backend:        be,
		log:            utils.NewLog(config.LogPath, "pumpfun"),
		id:             program.Pump,
		feeRecipient:   program.PumpFeeRecipient,
		eventAuthority: program.PumpEventAuthority,
	}
	return p
}

func (p *Program) Name() string {
	return "pumpfun"
}

func (p *Program) Id() solana.PublicKey {
	return p.id
}

// Start fetches the global configuration once. A missing global account is a
// configuration error the process cannot trade through.
func (p *Program) Start() error {
	p.log.Printf("start %s, program: %s", p.Name(), p.Id())
	global, err := p.RetrieveGlobal()
	if err != nil {
		return fmt.Errorf("global account: %w", err)
	}
	p.global = global
	if global.FeeRecipient != (solana.PublicKey{}) {
		p.feeRecipient = global.FeeRecipient
	}
	p.log.Printf("global config: fee recipient: %s, fee: %d bps, initial reserves: (%d %d)",
		p.feeRecipient, global.FeeBasisPoints,
		global.InitialVirtualSolReserves, global.InitialVirtualTokenReserves)
	return nil
}

func (p *Program) Stop() error {
	p.log.Printf("stop %s", p.Name())
	return nil
}

func (p *Program) Global() *KeyedGlobal {
	return p.global
}

// DecodeBondingCurve validates length and discriminator before interpreting
// the fields.
func DecodeBondingCurve(data []byte) (BondingCurveLayout, error) {
	curve := BondingCurveLayout{}
	if len(data) != BondingCurveLayoutSize {
		return curve, fmt.Errorf("%w: curve data size, expected: %d, actual: %d",
			ErrDecode, BondingCurveLayoutSize, len(data))
	}
	buf := bytes.NewReader(data)
	if err := binary.Read(buf, binary.LittleEndian, &curve); err != nil {
		return curve, fmt.Errorf("%w: %s", ErrDecode, err)
	}
	if curve.Discriminator != BondingCurveDiscriminator {
		return curve, fmt.Errorf("%w: curve discriminator mismatch: %v", ErrDecode, curve.Discriminator)
	}
	return curve, nil
}

func DecodeGlobal(data []byte) (GlobalLayout, error) {
	global := GlobalLayout{}
	if len(data) != GlobalLayoutSize {
		return global, fmt.Errorf("%w: global data size, expected: %d, actual: %d",
			ErrDecode, GlobalLayoutSize, len(data))
	}
	buf := bytes.NewReader(data)
	if err := binary.Read(buf, binary.LittleEndian, &global); err != nil {
		return global, fmt.Errorf("%w: %s", ErrDecode, err)
	}
	if global.Discriminator != GlobalDiscriminator {
		return global, fmt.Errorf("%w: global discriminator mismatch: %v", ErrDecode, global.Discriminator)
	}
	return global, nil
}

func (p *Program) parseBondingCurve(account *backend.Account) (BondingCurveLayout, error) {
	if account.Account == nil {
		return BondingCurveLayout{}, fmt.Errorf("%w: account(%s) is missing", ErrDecode, account.PubKey)
	}
	if account.Account.Owner != p.id {
		return BondingCurveLayout{}, fmt.Errorf("%w: account(%s) is not owned by %s, actual: %s",
			ErrDecode, account.PubKey, p.id, account.Account.Owner)
	}
	return DecodeBondingCurve(account.Account.Data.GetBinary())
}

// RetrieveBondingCurve fetches and decodes a fresh curve snapshot for mint.
// Reserves move with every on-chain trade, so the result is never cached.
func (p *Program) RetrieveBondingCurve(mint solana.PublicKey) (*KeyedBondingCurve, error) {
	curveKey, err := DeriveBondingCurveAddress(mint)
	if err != nil {
		return nil, err
	}
	account, err := p.backend.Account(curveKey)
	if err != nil {
		return nil, err
	}
	layout, err := p.parseBondingCurve(account)
	if err != nil {
		return nil, err
	}
	return &KeyedBondingCurve{
		Key:                curveKey,
		Height:             account.Height,
		BondingCurveLayout: layout,
	}, nil
}

func (p *Program) RetrieveGlobal() (*KeyedGlobal, error) {
	globalKey, err := DeriveGlobalAddress()
	if err != nil {
		return nil, err
	}
	account, err := p.backend.Account(globalKey)
	if err != nil {
		return nil, err
	}
	if account.Account == nil || account.Account.Owner != p.id {
		return nil, fmt.Errorf("%w: account(%s) is not owned by %s", ErrDecode, globalKey, p.id)
	}
	layout, err := DecodeGlobal(account.Account.Data.GetBinary())
	if err != nil {
		return nil, err
	}
	return &KeyedGlobal{
		Key:          globalKey,
		Height:       account.Height,
		GlobalLayout: layout,
	}, nil
}

// tradeAccounts assembles the fixed account list the program expects, in the
// exact order and roles of its instruction contract.
func (p *Program) tradeAccounts(user, mint, curveKey, userAssociated solana.PublicKey) ([]*solana.AccountMeta, error) {
	if p.global == nil || p.global.Key == (solana.PublicKey{}) {
		return nil, fmt.Errorf("%w: global config", ErrMissingAccount)
	}
	if p.feeRecipient == (solana.PublicKey{}) {
		return nil, fmt.Errorf("%w: fee recipient", ErrMissingAccount)
	}
	if curveKey == (solana.PublicKey{}) {
		return nil, fmt.Errorf("%w: bonding curve", ErrMissingAccount)
	}
	if userAssociated == (solana.PublicKey{}) {
		return nil, fmt.Errorf("%w: associated user account", ErrMissingAccount)
	}
	if mint == (solana.PublicKey{}) || user == (solana.PublicKey{}) {
		return nil, fmt.Errorf("%w: mint or user", ErrMissingAccount)
	}
	curveAssociated, err := DeriveAssociatedTokenAddress(curveKey, mint)
	if err != nil {
		return nil, err
	}
	return []*solana.AccountMeta{
		{PublicKey: p.global.Key, IsSigner: false, IsWritable: false},
		{PublicKey: p.feeRecipient, IsSigner: false, IsWritable: true},
		{PublicKey: curveAssociated, IsSigner: false, IsWritable: true},
		{PublicKey: userAssociated, IsSigner: false, IsWritable: true},
		{PublicKey: mint, IsSigner: false, IsWritable: false},
		{PublicKey: curveKey, IsSigner: false, IsWritable: true},
		{PublicKey: user, IsSigner: true, IsWritable: true},
		{PublicKey: program.System, IsSigner: false, IsWritable: false},
		{PublicKey: program.Token, IsSigner: false, IsWritable: false},
		{PublicKey: program.SysRent, IsSigner: false, IsWritable: false},
		{PublicKey: p.eventAuthority, IsSigner: false, IsWritable: false},
	}, nil
}

// InstructionBuy buys tokenAmount for at most maxSolCost lamports. The
// program aborts the whole transaction if the realized price is worse.
func (p *Program) InstructionBuy(user, mint, curveKey, userAssociated solana.PublicKey, tokenAmount, maxSolCost uint64) (solana.Instruction, error) {
	accounts, err := p.tradeAccounts(user, mint, curveKey, userAssociated)
	if err != nil {
		return nil, err
	}
	data := make([]byte, 24)
	copy(data[0:8], BuyDiscriminator[:])
	binary.LittleEndian.PutUint64(data[8:], tokenAmount)
	binary.LittleEndian.PutUint64(data[16:], maxSolCost)
	return &program.Instruction{
		IsAccounts:  accounts,
		IsData:      data,
		IsProgramID: p.id,
	}, nil
}

// InstructionSell sells tokenAmount for at least minSolOutput lamports,
// with the symmetric abort-on-shortfall semantics.
func (p *Program) InstructionSell(user, mint, curveKey, userAssociated solana.PublicKey, tokenAmount, minSolOutput uint64) (solana.Instruction, error) {
	accounts, err := p.tradeAccounts(user, mint, curveKey, userAssociated)
	if err != nil {
		return nil, err
	}
	data := make([]byte, 24)
	copy(data[0:8], SellDiscriminator[:])
	binary.LittleEndian.PutUint64(data[8:], tokenAmount)
	binary.LittleEndian.PutUint64(data[16:], minSolOutput)
	return &program.Instruction{
		IsAccounts:  accounts,
		IsData:      data,
		IsProgramID: p.id,
	}, nil
}
