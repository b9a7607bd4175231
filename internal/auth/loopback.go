package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytspot/internal/server"
	"github.com/desertthunder/ytspot/internal/shared"
	"golang.org/x/oauth2"
)

// DefaultConsentTimeout bounds how long the callback server waits for the user.
const DefaultConsentTimeout = 2 * time.Minute

// LoopbackAuthorizer runs the authorization code flow against a temporary callback server.
//
// The server listens on the host and port of the config's redirect URL and serves its path.
type LoopbackAuthorizer struct {
	Provider    string
	Out         io.Writer
	Logger      *log.Logger
	Timeout     time.Duration
	AuthOptions []oauth2.AuthCodeOption

	// OpenURL opens the consent page. Defaults to [shared.OpenBrowser].
	OpenURL func(string) error
}

// Authorize implements [Authorizer].
func (a *LoopbackAuthorizer) Authorize(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	addr, path, err := CallbackAddr(config.RedirectURL)
	if err != nil {
		return nil, err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	logger := a.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	out := a.Out
	if out == nil {
		out = io.Discard
	}
	open := a.OpenURL
	if open == nil {
		open = shared.OpenBrowser
	}
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultConsentTimeout
	}

	handler := server.NewOAuthHandler(a.Provider, config, state, path)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(logger))
	router.Handler(handler)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting OAuth callback server", "provider", a.Provider, "addr", addr, "paths", router.Paths())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := config.AuthCodeURL(state, a.AuthOptions...)
	fmt.Fprintf(out, "→ Opening browser for %s authorization...\n", a.Provider)
	if err := open(authURL); err != nil {
		logger.Warn("failed to open browser automatically", "error", err)
		fmt.Fprintf(out, "\n⚠ Could not open browser automatically.\nPlease open this URL in your browser:\n%s\n\n", authURL)
	}
	fmt.Fprintf(out, "→ Waiting for authorization (%v timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %v", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, result.Error()
	}
	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}
	return result.Token, nil
}

// CallbackAddr splits a loopback redirect URL into a listen address and a callback path.
func CallbackAddr(redirectURL string) (addr, path string, err error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: redirect url %q: %v", shared.ErrInvalidConfig, redirectURL, err)
	}
	if u.Scheme != "http" || u.Host == "" {
		return "", "", fmt.Errorf("%w: redirect url %q must be an http loopback address", shared.ErrInvalidConfig, redirectURL)
	}

	host, port := u.Hostname(), u.Port()
	if port == "" {
		port = "80"
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return net.JoinHostPort(host, port), path, nil
}
