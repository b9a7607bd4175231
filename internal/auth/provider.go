package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytspot/internal/shared"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

// expiryBuffer is how long before expiry a cached token is refreshed.
const expiryBuffer = 30 * time.Second

// SpotifyScopes are the scopes requested from Spotify.
var SpotifyScopes = []string{
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
}

// Authorizer obtains a fresh token through user consent.
type Authorizer interface {
	Authorize(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error)
}

// AuthorizerFunc adapts a function to [Authorizer].
type AuthorizerFunc func(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error)

func (f AuthorizerFunc) Authorize(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	return f(ctx, config)
}

// Provider ties an OAuth2 client registration to its token cache.
type Provider struct {
	Name       string
	Config     *oauth2.Config
	Store      *TokenStore
	Authorizer Authorizer // nil disables interactive consent
	Logger     *log.Logger
}

// YouTubeOAuthConfig reads the client registration file and returns a read-only YouTube config.
//
// The redirect URL is replaced with redirectURL, the loopback callback served during consent.
func YouTubeOAuthConfig(clientSecretsPath, redirectURL string) (*oauth2.Config, error) {
	data, err := os.ReadFile(clientSecretsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read client secrets %s: %v", shared.ErrMissingCredentials, clientSecretsPath, err)
	}

	config, err := google.ConfigFromJSON(data, youtube.YoutubeReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to parse client secrets: %v", shared.ErrInvalidCredentials, err)
	}
	config.RedirectURL = redirectURL
	return config, nil
}

// SpotifyOAuthConfig builds the Spotify authorization code config from the client registration.
func SpotifyOAuthConfig(creds shared.SpotifyCredentials) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Scopes:       SpotifyScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: spotifyauth.TokenURL,
		},
	}
}

// TokenSource resolves a usable token and returns a source that persists refreshed tokens.
//
// A cached token is refreshed when needed; if there is no cached token or the refresh fails,
// the [Authorizer] is asked for a new one. Without an Authorizer that case is [shared.ErrNotAuthenticated].
func (p *Provider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	logger := p.logger()

	tok, err := p.Store.Load()
	switch {
	case err == nil:
		tok, err = p.refreshIfNeeded(ctx, tok)
		if err != nil {
			logger.Warn("cached token could not be refreshed, reauthorizing", "error", err)
			tok = nil
		}
	case errors.Is(err, shared.ErrNotAuthenticated):
		logger.Debug("no cached token", "path", p.Store.Path())
		tok = nil
	default:
		logger.Warn("ignoring unreadable token cache", "path", p.Store.Path(), "error", err)
		tok = nil
	}

	if tok == nil {
		if tok, err = p.Authorize(ctx); err != nil {
			return nil, err
		}
	}

	return &persistingSource{
		base:   p.Config.TokenSource(ctx, tok),
		store:  p.Store,
		last:   tok,
		logger: logger,
	}, nil
}

// Authorize runs the interactive consent flow and caches the resulting token.
func (p *Provider) Authorize(ctx context.Context) (*oauth2.Token, error) {
	if p.Authorizer == nil {
		return nil, fmt.Errorf("%w: run `ytspot auth %s` first", shared.ErrNotAuthenticated, p.Name)
	}

	tok, err := p.Authorizer.Authorize(ctx, p.Config)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrAuthFailed, p.Name, err)
	}
	if err := p.Store.Save(tok); err != nil {
		return nil, err
	}
	p.logger().Info("token saved", "path", p.Store.Path())
	return tok, nil
}

// Client returns an HTTP client authorized with the provider's token source.
func (p *Provider) Client(ctx context.Context) (*http.Client, error) {
	ts, err := p.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

func (p *Provider) refreshIfNeeded(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	if tok.Expiry.IsZero() || tok.Expiry.After(time.Now().Add(expiryBuffer)) {
		return tok, nil
	}
	if tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: %w", shared.ErrTokenExpired, shared.ErrNoRefreshToken)
	}

	stale := *tok
	stale.Expiry = time.Now().Add(-time.Minute)
	fresh, err := p.Config.TokenSource(ctx, &stale).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	if err := p.Store.Save(fresh); err != nil {
		return nil, err
	}
	p.logger().Debug("token refreshed", "provider", p.Name)
	return fresh, nil
}

func (p *Provider) logger() *log.Logger {
	if p.Logger == nil {
		p.Logger = shared.NewLogger(nil)
	}
	return p.Logger
}

// persistingSource saves every new token handed out by base.
type persistingSource struct {
	base   oauth2.TokenSource
	store  *TokenStore
	logger *log.Logger

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		if err := s.store.Save(tok); err != nil {
			s.logger.Warn("failed to persist refreshed token", "error", err)
		}
		s.last = tok
	}
	return tok, nil
}
