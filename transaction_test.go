package rdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_StartsWithMultiFramingOnly(t *testing.T) {
	tx := newTransaction(nil)
	assert.True(t, tx.Empty())
	assert.False(t, tx.Watched())
}

func TestTransaction_EmptyReflectsUserCommands(t *testing.T) {
	tx := newTransaction(nil)
	require.NoError(t, tx.Call("SET", "a", "1"))
	assert.False(t, tx.Empty())
}

func TestTransaction_Watched(t *testing.T) {
	tx := newTransaction([]string{"a", "b"})
	assert.True(t, tx.Watched())
}

func TestTransaction_Finalize_EmptyWhenOnlyFraming(t *testing.T) {
	tx := newTransaction(nil)
	batch, empty := tx.finalize()
	assert.True(t, empty)
	require.Equal(t, 2, batch.Size())
	assert.Equal(t, "MULTI", batch.commands[0].Name())
	assert.Equal(t, "EXEC", batch.commands[1].Name())
}

func TestTransaction_Finalize_NotEmptyWithCommands(t *testing.T) {
	tx := newTransaction(nil)
	require.NoError(t, tx.Call("SET", "a", "1"))
	require.NoError(t, tx.Call("GET", "a"))

	batch, empty := tx.finalize()
	assert.False(t, empty)
	require.Equal(t, 4, batch.Size())
	assert.Equal(t, "MULTI", batch.commands[0].Name())
	assert.Equal(t, "SET", batch.commands[1].Name())
	assert.Equal(t, "GET", batch.commands[2].Name())
	assert.Equal(t, "EXEC", batch.commands[3].Name())
}

func TestTransaction_CallOnce_MarksNonRetryable(t *testing.T) {
	tx := newTransaction(nil)
	require.NoError(t, tx.CallOnce("INCR", "counter"))
	batch, _ := tx.finalize()
	assert.False(t, batch.Retryable())
}
