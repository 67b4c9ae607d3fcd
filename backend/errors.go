package backend

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrAccountNotFound means a derived address has no initialized account
	// yet. For freshly created assets this is "not tradable yet", not a bug.
	ErrAccountNotFound = errors.New("account not found")
	// ErrTransactionExpired means the blockhash aged past its valid height
	// before the transaction confirmed.
	ErrTransactionExpired = errors.New("transaction expired")
	// ErrSlippageExceeded is the on-chain abort when the realized price moved
	// outside the bound carried by the instruction.
	ErrSlippageExceeded = errors.New("slippage bound exceeded")
	// ErrTransactionFailed carries any other on-chain execution error.
	ErrTransactionFailed = errors.New("transaction failed")
	// ErrNetwork wraps a transport failure that survived the retry loop.
	ErrNetwork = errors.New("network error")
)

const (
	fetchRetries = 3
	retryDelay   = time.Millisecond * 100
)

// withRetry absorbs transient transport failures at the gateway boundary so
// callers only ever see ErrNetwork after the last try.
func (backend *Backend) withRetry(op func() error) error {
	var err error
	for i := 0; i < fetchRetries; i++ {
		if err = op(); err == nil {
			return nil
		}
		if errors.Is(err, ErrAccountNotFound) {
			return err
		}
		select {
		case <-backend.ctx.Done():
			return fmt.Errorf("%w: %s", ErrNetwork, err)
		case <-time.After(retryDelay * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("%w: %s", ErrNetwork, err)
}

// The on-chain program reports slippage aborts as anchor custom errors 6002
// (buy paid too much) and 6003 (sell received too little).
func classifyExecutionError(txErr interface{}) error {
	reason := fmt.Sprintf("%v", txErr)
	if strings.Contains(reason, "6002") || strings.Contains(reason, "6003") {
		return fmt.Errorf("%w: %s", ErrSlippageExceeded, reason)
	}
	return fmt.Errorf("%w: %s", ErrTransactionFailed, reason)
}
