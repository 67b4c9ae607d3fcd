package backend

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

const (
	MultipleAccountSliceSize = 100
)

type Account struct {
	PubKey  solana.PublicKey
	Account *rpc.Account
	Height  uint64
}

func (backend *Backend) Account(pubkey solana.PublicKey) (*Account, error) {
	var account *Account
	err := backend.withRetry(func() error {
		response, err := backend.rpcClient.GetAccountInfoWithOpts(backend.ctx, pubkey,
			&rpc.GetAccountInfoOpts{
				Encoding:   solana.EncodingBase64,
				Commitment: rpc.CommitmentConfirmed,
			})
		if err != nil {
			if errors.Is(err, rpc.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrAccountNotFound, pubkey)
			}
			return err
		}
		if response.Value == nil {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, pubkey)
		}
		account = &Account{
			PubKey:  pubkey,
			Height:  response.Context.Slot,
			Account: response.Value,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (backend *Backend) Accounts(pubkeys []solana.PublicKey) ([]*Account, error) {
	accounts := make([]*Account, 0, len(pubkeys))
	index, end := 0, 0
	for index < len(pubkeys) {
		if end = index + MultipleAccountSliceSize; end > len(pubkeys) {
			end = len(pubkeys)
		}
		var rsp *rpc.GetMultipleAccountsResult
		err := backend.withRetry(func() error {
			var err error
			rsp, err = backend.rpcClient.GetMultipleAccountsWithOpts(backend.ctx, pubkeys[index:end],
				&rpc.GetMultipleAccountsOpts{
					Encoding:   solana.EncodingBase64,
					Commitment: rpc.CommitmentConfirmed,
				})
			return err
		})
		if err != nil {
			return nil, err
		}
		if len(rsp.Value) != end-index {
			return nil, fmt.Errorf("get accounts err, some account is missing")
		}
		for i, account := range rsp.Value {
			accounts = append(accounts, &Account{
				PubKey:  pubkeys[index+i],
				Height:  rsp.Context.Slot,
				Account: account,
			})
		}
		index = end
	}
	return accounts, nil
}

func (backend *Backend) ProgramAccounts(program solana.PublicKey, dataSize uint64, memcmpOffset uint64, memcmpBytes []byte) ([]*Account, error) {
	filters := make([]rpc.RPCFilter, 0, 2)
	if dataSize != 0 {
		filters = append(filters, rpc.RPCFilter{DataSize: dataSize})
	}
	if len(memcmpBytes) != 0 {
		filters = append(filters, rpc.RPCFilter{
			Memcmp: &rpc.RPCFilterMemcmp{
				Offset: memcmpOffset,
				Bytes:  solana.Base58(memcmpBytes),
			},
		})
	}
	var result rpc.GetProgramAccountsResult
	err := backend.withRetry(func() error {
		var err error
		result, err = backend.rpcClient.GetProgramAccountsWithOpts(backend.ctx, program,
			&rpc.GetProgramAccountsOpts{
				Encoding: solana.EncodingBase64,
				Filters:  filters,
			})
		return err
	})
	if err != nil {
		return nil, err
	}
	accounts := make([]*Account, 0, len(result))
	for _, account := range result {
		accounts = append(accounts, &Account{
			PubKey:  account.Pubkey,
			Account: account.Account,
		})
	}
	return accounts, nil
}

func (backend *Backend) TokenAccountsByOwner(owner solana.PublicKey, tokenProgram solana.PublicKey) ([]*Account, error) {
	var result *rpc.GetTokenAccountsResult
	err := backend.withRetry(func() error {
		var err error
		result, err = backend.rpcClient.GetTokenAccountsByOwner(backend.ctx, owner,
			&rpc.GetTokenAccountsConfig{
				ProgramId: &tokenProgram,
			},
			&rpc.GetTokenAccountsOpts{
				Encoding:   solana.EncodingBase64,
				Commitment: rpc.CommitmentConfirmed,
			})
		return err
	})
	if err != nil {
		return nil, err
	}
	accounts := make([]*Account, 0, len(result.Value))
	for index := range result.Value {
		tokenAccount := result.Value[index]
		accounts = append(accounts, &Account{
			PubKey:  tokenAccount.Pubkey,
			Height:  result.Context.Slot,
			Account: &tokenAccount.Account,
		})
	}
	return accounts, nil
}

// HasAccount is a single existence query. The error is reported rather than
// folded into false: creating an associated account that already exists
// aborts the whole transaction.
func (backend *Backend) HasAccount(pubkey solana.PublicKey) (bool, error) {
	_, err := backend.Account(pubkey)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrAccountNotFound) {
		return false, nil
	}
	return false, err
}

func (backend *Backend) Balance(pubkey solana.PublicKey) (uint64, error) {
	var lamports uint64
	err := backend.withRetry(func() error {
		response, err := backend.rpcClient.GetBalance(backend.ctx, pubkey, rpc.CommitmentConfirmed)
		if err != nil {
			return err
		}
		lamports = response.Value
		return nil
	})
	return lamports, err
}
