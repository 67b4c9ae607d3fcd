package backend

import (
	"context"
	"sync"

	"github.com/Aybryan5/SniperBotSol/config"
	"github.com/Aybryan5/SniperBotSol/utils"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"log"
)

// Backend is the single boundary to the ledger: account reads, blockhash
// caching and transaction submission. Everything above it works on decoded
// snapshots and instructions.
type Backend struct {
	logger    *log.Logger
	rpcClient *rpc.Client
	txClients []*rpc.Client
	ctx       context.Context
	wg        sync.WaitGroup

	lock            int32
	cachedBlockHash solana.Hash
	cachedValidTo   uint64
}

func NewBackend(ctx context.Context, nodes []*config.Node, transactionNodes []*config.Node) *Backend {
	if len(nodes) == 0 {
		panic("no usable rpc node")
	}
	rpcClient := rpc.New(nodes[0].Rpc)
	txClients := make([]*rpc.Client, 0, len(transactionNodes))
	for _, node := range transactionNodes {
		txClients = append(txClients, rpc.New(node.Rpc))
	}
	if len(txClients) == 0 {
		txClients = append(txClients, rpcClient)
	}
	backend := &Backend{
		logger:    utils.NewLog(config.LogPath, config.BackendLog),
		rpcClient: rpcClient,
		txClients: txClients,
		ctx:       ctx,
	}
	return backend
}

func (backend *Backend) Start() {
	backend.wg.Add(1)
	go backend.cacheBlockHash()
}

func (backend *Backend) Stop() {
	backend.wg.Wait()
}
