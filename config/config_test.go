package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg := New("127.0.0.1:6379")
	assert.Equal(t, "", cfg.ID())
	assert.False(t, cfg.IsSentinel())
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout())
	assert.Empty(t, cfg.Prelude())
}

func TestNew_WithAuthAndDB_BuildsPrelude(t *testing.T) {
	cfg := New("127.0.0.1:6379", WithAuth("default", "secret"), WithDB(2))
	prelude := cfg.Prelude()
	require.Len(t, prelude, 2)
	assert.Equal(t, "AUTH", prelude[0].Name())
	assert.Equal(t, "SELECT", prelude[1].Name())
}

func TestNew_WithAuth_NoUsername_SingleArgAuth(t *testing.T) {
	cfg := New("127.0.0.1:6379", WithAuth("", "secret"))
	prelude := cfg.Prelude()
	require.Len(t, prelude, 1)
	assert.Equal(t, 2, prelude[0].Len())
}

func TestStaticConfig_CheckRole_AlwaysNil(t *testing.T) {
	cfg := New("127.0.0.1:6379")
	assert.NoError(t, cfg.CheckRole("master"))
	assert.NoError(t, cfg.CheckRole("slave"))
}

func TestRetryConnecting_RespectsMaxRetries(t *testing.T) {
	cfg := New("127.0.0.1:6379", WithMaxRetries(2))
	assert.True(t, cfg.RetryConnecting(0, assertErr))
	assert.True(t, cfg.RetryConnecting(1, assertErr))
	assert.False(t, cfg.RetryConnecting(2, assertErr))
}

func TestRetryConnecting_ZeroMeansUnbounded(t *testing.T) {
	cfg := New("127.0.0.1:6379", WithMaxRetries(0))
	for tries := 0; tries < 100; tries++ {
		assert.True(t, cfg.RetryConnecting(tries, assertErr))
	}
}

var assertErr = &testError{}

type testError struct{}

func (e *testError) Error() string { return "boom" }
