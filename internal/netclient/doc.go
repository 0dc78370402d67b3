// Package netclient builds the *http.Client shared by the tools and the
// OpenAI provider, and provides small helpers for JSON request/response
// round trips.
//
// A client can route through a SOCKS5 proxy (golang.org/x/net/proxy) when
// one is configured.
package netclient
