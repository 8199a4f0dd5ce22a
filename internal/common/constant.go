// Package common contains shared constants and sentinel errors used across
// the auth server and its CLI client.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer session token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the session token in the Authorization header.
const BearerPrefix = "Bearer "
