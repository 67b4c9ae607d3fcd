package trader

import (
	"fmt"
	"sync"

	"github.com/Aybryan5/SniperBotSol/config"
	"github.com/Aybryan5/SniperBotSol/pumpfun"
	"github.com/gagliardetto/solana-go"
)

// Wallet is a trading keypair plus a cache of its derived associated token
// accounts. Derivation is deterministic, so cached entries never go stale.
type Wallet struct {
	PriKey solana.PrivateKey
	PubKey solana.PublicKey
	mutex  sync.Mutex
	atas   map[solana.PublicKey]solana.PublicKey
}

func NewWallet(item *config.Wallet) (*Wallet, error) {
	key, err := solana.PrivateKeyFromBase58(item.Key)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet key: %w", err)
	}
	return &Wallet{
		PriKey: key,
		PubKey: key.PublicKey(),
		atas:   make(map[solana.PublicKey]solana.PublicKey),
	}, nil
}

func (w *Wallet) AssociatedTokenAccount(mint solana.PublicKey) (solana.PublicKey, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if ata, ok := w.atas[mint]; ok {
		return ata, nil
	}
	ata, err := pumpfun.DeriveAssociatedTokenAddress(w.PubKey, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	w.atas[mint] = ata
	return ata, nil
}

// signer resolves this wallet's private key during transaction signing.
func (w *Wallet) signer(key solana.PublicKey) *solana.PrivateKey {
	if key == w.PubKey {
		return &w.PriKey
	}
	return nil
}
