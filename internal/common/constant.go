// Package common contains shared constants and sentinel errors used across
// YaMDb components.
package common

// AuthorizationHeaderName carries the bearer access token on HTTP requests
// and in gRPC metadata.
const AuthorizationHeaderName = "authorization"

// BearerPrefix precedes the token in the authorization header.
const BearerPrefix = "Bearer "

// RequestIDHeaderName is echoed back on every HTTP response.
const RequestIDHeaderName = "X-Request-ID"

// MeUsername is the reserved path segment of the self-service profile.
const MeUsername = "me"
