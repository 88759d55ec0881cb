// Package bearer provides opaque bearer token authentication (credential
// parsing, stateful token repositories, HTTP helpers) plus role and realm
// based access control for JSON APIs.
//
// Token lifecycle:
//   - Each user owns at most one token row, persisted via Bun. A login either
//     reuses the live token, rotates a revoked one in place, or inserts a new
//     row through an insert-if-absent path that tolerates concurrent logins.
//   - Logout overwrites the value with a sentinel and flags the row revoked,
//     so a stale bearer value fails the lookup instead of matching a revoked
//     record. Archiving an account revokes its token in the same transaction.
//
// Request pipeline:
//   - middleware/tokenware gates router requests: it extracts the credential
//     from the Authorization header or the access-token query parameter,
//     resolves it against the store on every request, and attaches the owning
//     user as the request principal. Paths on the open-endpoint allow-list
//     skip the gate entirely.
//   - adapters/fiberware exposes the same gate as a native Fiber handler.
//
// Every failure that reaches the HTTP boundary is classified into a fixed
// set of wire-visible type codes and rendered through a uniform envelope.
package bearer
