package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

const confirmPoll = time.Millisecond * 500

// SendTransaction pushes the signed transaction to every transaction node.
// The signature is the same everywhere, so the first acceptance wins and the
// rest are best-effort duplicates.
func (backend *Backend) SendTransaction(trx *solana.Transaction) (solana.Signature, error) {
	var signature solana.Signature
	var lastErr error
	sent := false
	for i, client := range backend.txClients {
		sig, err := client.SendTransactionWithOpts(backend.ctx, trx, rpc.TransactionOpts{
			SkipPreflight:       true,
			PreflightCommitment: rpc.CommitmentConfirmed,
		})
		if err != nil {
			backend.logger.Printf("SendTransactionWithOpts, node %d err: %s", i, err.Error())
			lastErr = err
			continue
		}
		signature = sig
		sent = true
	}
	if !sent {
		return solana.Signature{}, fmt.Errorf("%w: %s", ErrNetwork, lastErr)
	}
	return signature, nil
}

// WaitConfirmation polls the signature status until the transaction confirms,
// its blockhash expires, or ctx runs out. An on-chain execution error comes
// back classified (slippage vs everything else).
func (backend *Backend) WaitConfirmation(ctx context.Context, signature solana.Signature, lastValidHeight uint64) error {
	ticker := time.NewTicker(confirmPoll)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			response, err := backend.rpcClient.GetSignatureStatuses(ctx, false, signature)
			if err != nil {
				backend.logger.Printf("GetSignatureStatuses err: %s", err.Error())
				continue
			}
			if len(response.Value) > 0 && response.Value[0] != nil {
				status := response.Value[0]
				if status.Err != nil {
					return classifyExecutionError(status.Err)
				}
				if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
					status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
					return nil
				}
				continue
			}
			// Not seen by the cluster yet. If the chain moved past the
			// blockhash validity window it never will be.
			height, err := backend.rpcClient.GetBlockHeight(ctx, rpc.CommitmentConfirmed)
			if err != nil {
				backend.logger.Printf("GetBlockHeight err: %s", err.Error())
				continue
			}
			if lastValidHeight != 0 && height > lastValidHeight {
				return fmt.Errorf("%w: %s", ErrTransactionExpired, signature)
			}
		case <-ctx.Done():
			return fmt.Errorf("%w: confirmation wait: %s", ErrNetwork, ctx.Err())
		}
	}
}
