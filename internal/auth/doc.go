// Package auth bootstraps the OAuth2 credentials for the source and destination services.
//
// Both providers follow the same path through [Provider.TokenSource]:
//
//  1. Load the cached token from its [TokenStore]
//  2. Refresh it through the refresh token when it is expired or about to expire
//  3. Fall back to the interactive [Authorizer] when there is no usable token
//  4. Persist whatever token was obtained
//
// The returned token source writes refreshed tokens back to the store, so a long run
// that crosses an expiry leaves a valid token on disk for the next one.
//
// [LoopbackAuthorizer] runs the consent flow with a temporary callback server on a loopback address
// (see package server), opening the system browser on the consent URL.
package auth
