// Package auth provides authentication and authorisation for the
// telemetry API.
//
// It implements a 2-tier role model (user → admin) with:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - Short-lived HS256 JWT access tokens, validated by signature only
//   - SQLite-backed account persistence
//   - First-boot seeding of admin and user accounts
//
// There is no refresh token store: logout is a client-side token
// discard and the access token TTL bounds the session.
package auth
