// Package client contains the transport layer of the storefront client.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) covering
//     auth (Register/Login), products (list, own list, detail, create,
//     update, delete) and the cart (get, add, set quantity, delete).
//  2. A concrete REST implementation (see HTTPClient) that attaches the auth
//     token header captured at call time, tags each request with a request
//     id, optionally throttles outbound traffic and maps HTTP status codes to
//     sentinel errors.
//  3. Local persistence bootstrap utilities (InitDatabase, RunMigrations)
//     wiring an SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrAuthRequired, ErrNotFound.
// Other non-2xx responses surface as *ServerError.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation.
package client
