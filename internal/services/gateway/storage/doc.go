// Package storage defines persistence contracts for the account gateway.
//
// These interfaces exist so RPC handlers and business logic can depend on
// stable domain semantics without coupling to SQLite or Redis details.
package storage
