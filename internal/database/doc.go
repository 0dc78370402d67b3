// Package database provides the SQLite-based search history for schoolcrew.
//
// Every crew run started from the CLI or the HTTP API is stored with its
// inputs, its raw output and a SHA3-256 fingerprint of that output, so that
// past results can be listed and repeated answers recognized.
//
// The store uses modernc.org/sqlite, which is CGO-free, and keeps a single
// connection open because SQLite allows only one writer.
package database
