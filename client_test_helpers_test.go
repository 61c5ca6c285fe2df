package rdb

import (
	"context"
	"errors"
	"time"

	"github.com/pior/rdb/driver"
	"github.com/pior/rdb/internal/rdbtest"
	"github.com/pior/rdb/resp"
)

// fakeConfig is a minimal config.Config test double: NewDriver hands out
// pre-built MockDrivers in order, one per (re)connection attempt, so tests
// can script exactly how many times the Client reconnects.
type fakeConfig struct {
	drivers      []driver.Driver
	idx          int
	prelude      []*resp.Command
	sentinel     bool
	roleErr      error
	maxRetries   int
}

func newFakeConfig(drivers ...driver.Driver) *fakeConfig {
	return &fakeConfig{drivers: drivers, maxRetries: 3}
}

func (f *fakeConfig) ID() string                   { return "" }
func (f *fakeConfig) ConnectTimeout() time.Duration { return time.Second }
func (f *fakeConfig) ReadTimeout() time.Duration    { return time.Second }
func (f *fakeConfig) WriteTimeout() time.Duration   { return time.Second }

func (f *fakeConfig) NewDriver(ctx context.Context, connectTimeout, readTimeout, writeTimeout time.Duration) (driver.Driver, error) {
	if f.idx >= len(f.drivers) {
		return nil, errors.New("fakeConfig: no more drivers scripted")
	}
	d := f.drivers[f.idx]
	f.idx++
	return d, nil
}

func (f *fakeConfig) Prelude() []*resp.Command    { return f.prelude }
func (f *fakeConfig) IsSentinel() bool            { return f.sentinel }
func (f *fakeConfig) CheckRole(role string) error { return f.roleErr }
func (f *fakeConfig) RetryConnecting(tries int, err error) bool {
	return tries < f.maxRetries
}

func newTestClient(drivers ...*rdbtest.MockDriver) (*Client, *fakeConfig) {
	wrapped := make([]driver.Driver, len(drivers))
	for i, d := range drivers {
		wrapped[i] = d
	}
	cfg := newFakeConfig(wrapped...)
	c, _ := NewFromConfig(cfg)
	return c, cfg
}
