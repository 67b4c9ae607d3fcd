package backend

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyExecutionError(t *testing.T) {
	err := classifyExecutionError(map[string]interface{}{
		"InstructionError": []interface{}{2, map[string]interface{}{"Custom": 6002}},
	})
	require.ErrorIs(t, err, ErrSlippageExceeded)

	err = classifyExecutionError("custom program error: 6003")
	require.ErrorIs(t, err, ErrSlippageExceeded)

	err = classifyExecutionError("custom program error: 1")
	require.ErrorIs(t, err, ErrTransactionFailed)
	require.NotErrorIs(t, err, ErrSlippageExceeded)
}

func TestWithRetry(t *testing.T) {
	be := &Backend{ctx: context.Background()}

	calls := 0
	err := be.withRetry(func() error {
		calls++
		if calls < 2 {
			return fmt.Errorf("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	calls = 0
	err = be.withRetry(func() error {
		calls++
		return fmt.Errorf("down")
	})
	require.ErrorIs(t, err, ErrNetwork)
	require.Equal(t, fetchRetries, calls)

	calls = 0
	err = be.withRetry(func() error {
		calls++
		return ErrAccountNotFound
	})
	require.ErrorIs(t, err, ErrAccountNotFound)
	require.Equal(t, 1, calls)
}
