// Package server provides the loopback HTTP routing and OAuth callback handling used by the auth commands.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback flow for both YouTube and Spotify.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// A temporary server is started on the configured loopback address for the duration of the consent flow,
// serves the redirect path of the provider being authorized, and shuts down once a token is received.
package server
