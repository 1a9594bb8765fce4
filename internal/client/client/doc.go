// Package client contains client-side building blocks for gophdirectory.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) to talk
//     to the directory server: Ping, GetUser, the username and payment
//     address searches, GetTimestamp/ReportUser, PublishProfile and avatar
//     upload URLs.
//  2. A concrete gRPC implementation (see GRPCClient) that keeps a short-lived
//     response cache and maps gRPC status codes to sentinel errors.
//  3. Local persistence bootstrap (InitDatabase) for the CLI, wiring an
//     SQLite database, applying embedded goose migrations and building the
//     repositories.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrLocalDataNotAvailable,
// ErrClientClosed, and common.ErrorNotFound for unknown users.
//
// Concurrency & Contexts
//
// GRPCClient is safe for concurrent use. All remote operations accept
// context.Context and honor cancellation/timeouts.
package client
