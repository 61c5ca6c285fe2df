package rdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_Call_StaysRetryable(t *testing.T) {
	p := newPipeline()
	require.NoError(t, p.Call("GET", "a"))
	require.NoError(t, p.Call("GET", "b"))
	assert.True(t, p.Retryable())
	assert.Equal(t, 2, p.Size())
	assert.False(t, p.Empty())
}

func TestPipeline_CallOnce_MarksWholePipelineNonRetryable(t *testing.T) {
	p := newPipeline()
	require.NoError(t, p.Call("GET", "a"))
	require.NoError(t, p.CallOnce("INCR", "counter"))
	assert.False(t, p.Retryable())
	assert.Equal(t, 2, p.Size())
}

func TestPipeline_Empty(t *testing.T) {
	p := newPipeline()
	assert.True(t, p.Empty())
	assert.Equal(t, 0, p.Size())
}

func TestPipeline_BlockingCall_RecordsPerCommandTimeout(t *testing.T) {
	p := newPipeline()
	require.NoError(t, p.Call("PING"))
	require.NoError(t, p.BlockingCall(5*time.Second, "BLPOP", "q", "0"))

	timeouts := p.batch.Timeouts()
	require.NotNil(t, timeouts)
	assert.NotContains(t, timeouts, 0)
	assert.Equal(t, 5*time.Second, timeouts[1])
}

func TestPipeline_Call_RejectsEmptyCommand(t *testing.T) {
	p := newPipeline()
	err := p.Call()
	assert.Error(t, err)
	assert.Equal(t, 0, p.Size())
}
