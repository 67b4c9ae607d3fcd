package backend

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

const blockHashRefresh = time.Second * 2

func (backend *Backend) cacheBlockHash() {
	defer backend.wg.Done()
	backend.refreshBlockHash()
	ticker := time.NewTicker(blockHashRefresh)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			backend.refreshBlockHash()
		case <-backend.ctx.Done():
			backend.logger.Printf("block hash cache exit")
			return
		}
	}
}

func (backend *Backend) refreshBlockHash() {
	result, err := backend.rpcClient.GetLatestBlockhash(backend.ctx, rpc.CommitmentFinalized)
	if err != nil {
		backend.logger.Printf("GetLatestBlockhash, err: %s", err.Error())
		return
	}
	for !atomic.CompareAndSwapInt32(&backend.lock, 0, 1) {
		continue
	}
	backend.cachedBlockHash = result.Value.Blockhash
	backend.cachedValidTo = result.Value.LastValidBlockHeight
	atomic.StoreInt32(&backend.lock, 0)
}

// LatestBlockHash returns the cached blockhash together with the height it
// stays valid to. Before the first refresh lands it fetches inline.
func (backend *Backend) LatestBlockHash() (solana.Hash, uint64, error) {
	for !atomic.CompareAndSwapInt32(&backend.lock, 0, 1) {
		continue
	}
	hash := backend.cachedBlockHash
	validTo := backend.cachedValidTo
	atomic.StoreInt32(&backend.lock, 0)
	if hash != (solana.Hash{}) {
		return hash, validTo, nil
	}
	result, err := backend.rpcClient.GetLatestBlockhash(backend.ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, 0, fmt.Errorf("%w: %s", ErrNetwork, err)
	}
	return result.Value.Blockhash, result.Value.LastValidBlockHeight, nil
}

func (backend *Backend) BlockHeight() (uint64, error) {
	height, err := backend.rpcClient.GetBlockHeight(backend.ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrNetwork, err)
	}
	return height, nil
}
