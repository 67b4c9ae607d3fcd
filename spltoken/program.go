package spltoken

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Aybryan5/SniperBotSol/backend"
	"github.com/Aybryan5/SniperBotSol/program"
	"github.com/gagliardetto/solana-go"
)

// DecodeUser decodes a raw token holding account.
func DecodeUser(data []byte) (UserLayout, error) {
	user := UserLayout{}
	if len(data) != TokenLayoutSize {
		return user, fmt.Errorf("spl token account data size is not valid, expected: %d, actual: %d", TokenLayoutSize, len(data))
	}
	buf := bytes.NewReader(data)
	err := binary.Read(buf, binary.LittleEndian, &user)
	if err != nil {
		return user, fmt.Errorf("spl token account data is not valid, err: %s", err)
	}
	return user, nil
}

func DecodeMint(data []byte) (MintLayout, error) {
	mint := MintLayout{}
	if len(data) != MintLayoutSize {
		return mint, fmt.Errorf("spl mint account data size is not valid, expected: %d, actual: %d", MintLayoutSize, len(data))
	}
	buf := bytes.NewReader(data)
	err := binary.Read(buf, binary.LittleEndian, &mint)
	if err != nil {
		return mint, fmt.Errorf("spl mint account data is not valid, err: %s", err)
	}
	return mint, nil
}

// ParseUser validates ownership before interpreting the bytes.
func ParseUser(account *backend.Account) (*KeyedUser, error) {
	if account.Account == nil {
		return nil, fmt.Errorf("account(%s) is missing", account.PubKey)
	}
	if account.Account.Owner != program.Token {
		return nil, fmt.Errorf("account(%s) is not spl token program account, expected: %s, actual: %s",
			account.PubKey, program.Token, account.Account.Owner)
	}
	user, err := DecodeUser(account.Account.Data.GetBinary())
	if err != nil {
		return nil, fmt.Errorf("account(%s): %s", account.PubKey, err)
	}
	return &KeyedUser{
		Key:        account.PubKey,
		Height:     account.Height,
		UserLayout: user,
	}, nil
}

// InstructionCreateAssociatedAccount funds and initializes the canonical
// holding account of owner for mint. Payer signs.
func InstructionCreateAssociatedAccount(payer, associated, owner, mint solana.PublicKey) solana.Instruction {
	return &program.Instruction{
		IsAccounts: []*solana.AccountMeta{
			{PublicKey: payer, IsSigner: true, IsWritable: true},
			{PublicKey: associated, IsSigner: false, IsWritable: true},
			{PublicKey: owner, IsSigner: false, IsWritable: false},
			{PublicKey: mint, IsSigner: false, IsWritable: false},
			{PublicKey: program.System, IsSigner: false, IsWritable: false},
			{PublicKey: program.Token, IsSigner: false, IsWritable: false},
			{PublicKey: program.SysRent, IsSigner: false, IsWritable: false},
		},
		IsData:      []byte{},
		IsProgramID: program.AssociatedToken,
	}
}
