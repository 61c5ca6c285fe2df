// Package rdb implements the command-execution engine for a client library
// targeting a single-server in-memory key/value and pub/sub service that
// speaks the RESP2 wire protocol: the state machine that owns a single
// network connection, executes individual commands, pipelines, and
// transactions against it, enforces retry and reconnection policy on
// transient failures, and exposes lazy cursor-based iteration over
// server-side scans.
//
// Wire-protocol encoding/decoding lives in package resp, the socket driver
// in package driver, and configuration (timeouts, prelude, retry policy,
// optional sentinel discovery) in package config. This package wires those
// contracts together; it never hard-codes assumptions beyond what each
// contract defines.
package rdb
