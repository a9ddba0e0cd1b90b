// ABOUTME: Builds the authenticated HTTP client used against the back office
// ABOUTME: Prefers OAuth client credentials, then a configured token, then a stored login
package api

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/harperreed/podium/config"
)

// HTTPClient returns an http.Client for cfg. stored is the token saved by
// `podium login` and may be nil. With no credentials at all the client sends
// unauthenticated requests.
func HTTPClient(ctx context.Context, cfg config.API, stored *oauth2.Token) *http.Client {
	var hc *http.Client
	switch {
	case cfg.ClientCredentials():
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		hc = cc.Client(ctx)
	case cfg.Token != "":
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}))
	case stored != nil && stored.AccessToken != "":
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(stored))
	default:
		hc = &http.Client{}
	}
	hc.Timeout = cfg.Timeout
	return hc
}

// FromConfig builds a Client for cfg with the stored login token, if any.
func FromConfig(ctx context.Context, cfg config.API, stored *oauth2.Token, opts ...Option) *Client {
	all := append([]Option{
		WithHTTPClient(HTTPClient(ctx, cfg, stored)),
		WithRetries(cfg.RetryAttempts),
	}, opts...)
	return NewClient(cfg.BaseURL, all...)
}
