// Package common contains shared constants and helpers used across
// storefront components.
package common

// AccessTokenHeaderName is the HTTP header used to carry the auth token on
// outbound requests.
const AccessTokenHeaderName = "token"

// RequestIDHeaderName tags every outbound request with a unique id.
const RequestIDHeaderName = "X-Request-ID"

// TokenMetadataKey is the key-value store key the auth token persists under.
const TokenMetadataKey = "token"

// UserMetadataKey holds the JSON-encoded signed-in user next to the token.
const UserMetadataKey = "user"
