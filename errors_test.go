package rdb

import (
	"errors"
	"net"
	"testing"

	"github.com/pior/rdb/driver"
	"github.com/pior/rdb/resp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsConnectionClass_MatchesEveryConnectionSubtype(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"ConnectionError", newConnectionError(errBoom)},
		{"FailoverError", newFailoverError(errBoom)},
		{"ReadTimeoutError", newReadTimeoutError(errBoom)},
		{"WriteTimeoutError", newWriteTimeoutError(errBoom)},
		{"ConnectTimeoutError", newConnectTimeoutError(errBoom)},
		{"CheckoutTimeoutError", &CheckoutTimeoutError{ConnectTimeoutError{TimeoutError{connectionClass{
			baseError: baseError{msg: "boom"}, Err: errBoom,
		}}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, isConnectionClass(tc.err))
		})
	}
}

func TestIsConnectionClass_RejectsCommandErrors(t *testing.T) {
	cmdErr := ParseCommandError(&resp.ServerError{Code: "ERR", Message: "syntax error"})
	assert.False(t, isConnectionClass(cmdErr))
}

func TestIsConnectionClass_RejectsPlainErrors(t *testing.T) {
	assert.False(t, isConnectionClass(errBoom))
}

func TestClassifyError_TimeoutBecomesReadTimeoutError(t *testing.T) {
	err := classifyError(&net.OpError{Op: "read", Err: timeoutError{}})
	var readTimeout *ReadTimeoutError
	require.True(t, errors.As(err, &readTimeout))
}

func TestClassifyError_WriteTimeoutBecomesWriteTimeoutError(t *testing.T) {
	// The driver wraps a write-phase deadline error in *driver.WriteError
	// before it ever reaches classifyError; that's what lets the write half
	// of a call be told apart from the read half.
	err := classifyError(driver.NewWriteError(&net.OpError{Op: "write", Err: timeoutError{}}))
	var writeTimeout *WriteTimeoutError
	require.True(t, errors.As(err, &writeTimeout))

	var readTimeout *ReadTimeoutError
	assert.False(t, errors.As(err, &readTimeout))
}

func TestClassifyError_OtherwiseBecomesConnectionError(t *testing.T) {
	err := classifyError(errBoom)
	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.ErrorIs(t, err, errBoom)
}

func TestClassifyError_ParseErrorBecomesConnectionError(t *testing.T) {
	err := classifyError(&resp.ParseError{Message: "bad type byte"})
	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
}

func TestClassifyError_Nil(t *testing.T) {
	assert.NoError(t, classifyError(nil))
}

func TestParseCommandError_Registered(t *testing.T) {
	err := ParseCommandError(&resp.ServerError{Code: "WRONGPASS", Message: "invalid username-password pair"})
	var authErr *AuthenticationError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "WRONGPASS", authErr.Code)

	err = ParseCommandError(&resp.ServerError{Code: "NOPERM", Message: "no permission"})
	var permErr *PermissionError
	require.True(t, errors.As(err, &permErr))
}

func TestParseCommandError_Unregistered(t *testing.T) {
	err := ParseCommandError(&resp.ServerError{Code: "ERR", Message: "syntax error"})
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "ERR", cmdErr.Code)

	var authErr *AuthenticationError
	assert.False(t, errors.As(err, &authErr))
}

func TestRegisterCommandError_Extends(t *testing.T) {
	type customError struct{ CommandError }
	RegisterCommandError("MYCODE", func(e *resp.ServerError) Error {
		return &customError{CommandError{baseError: baseError{msg: e.Error()}, Code: e.Code, Message: e.Message}}
	})
	err := ParseCommandError(&resp.ServerError{Code: "MYCODE", Message: "custom"})
	var custom *customError
	require.True(t, errors.As(err, &custom))
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }
