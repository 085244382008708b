// Package server composes and runs the gateway process boundary.
//
// It hosts the JSON-RPC HTTP endpoint and wires the token, activity, and
// version checks in front of the method registry, backed by a shared SQLite
// store and an optional Redis session store.
package server
