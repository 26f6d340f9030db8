// Package auth provides the authentication and authorization layer for the
// API: bcrypt credential verification, JWT access/refresh token issuance,
// a persisted token ledger, and router middleware for bearer and role
// guards.
//
// Token ledger:
//   - Every issued token string is stored in the auth_tokens table, keyed by
//     the string itself. A refresh token is redeemable exactly while its row
//     exists; exchanging it removes the row, so a captured token cannot be
//     replayed.
//
// Guards:
//   - ProtectedRoute validates the bearer token and stores AuthClaims in the
//     router context under the configured context key.
//   - RequireRoles runs after it and passes requests whose claims hold ANY
//     of the listed role names.
package auth
