// Package testutil contains helpers used across tests to reduce boilerplate
// when scripting model turns and constructing tool calls. These helpers are
// intentionally minimal and are not intended for production usage.
package testutil
