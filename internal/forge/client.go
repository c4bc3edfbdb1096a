// Package forge implements orchestrator.ForgeClient against GitHub's REST
// API: diff and file-content retrieval, review and check-run posting, and
// the GitHub App installation-token exchange that authenticates all of it.
package forge

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/url"

	gh "github.com/google/go-github/v82/github"
	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/gregjones/httpcache"
)

// Config identifies the GitHub App whose installation tokens the Client
// exchanges for.
type Config struct {
	AppID          int64
	PrivateKeyPath string
}

// Client implements orchestrator.ForgeClient against the GitHub REST API.
// It authenticates as a GitHub App: every call resolves the target repo's
// installation, exchanges (or reuses a cached) installation access token,
// and issues the request with that token. A single Client serves every
// installation the app is present on — nothing here is scoped to one job.
type Client struct {
	base       *gh.Client
	appID      int64
	privateKey *rsa.PrivateKey
	tokens     *tokenCache
	installs   *installationCache
}

// NewClient builds a Client backed by the standard transport stack:
// httpcache (conditional-GET caching so re-reviewing a PR after a later
// push doesn't re-fetch unchanged files) wrapped by go-github-ratelimit
// (sleeps out GitHub's primary and secondary rate limits automatically).
func NewClient(cfg Config) (*Client, error) {
	key, err := loadPrivateKey(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load app private key: %w", err)
	}

	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimited := github_ratelimit.NewClient(cacheTransport)

	return &Client{
		base:       gh.NewClient(rateLimited),
		appID:      cfg.AppID,
		privateKey: key,
		tokens:     newTokenCache(),
		installs:   newInstallationCache(),
	}, nil
}

// newClientWithBase builds a Client around a caller-supplied go-github
// client, letting tests point BaseURL at an httptest server without going
// through the httpcache/ratelimit transport stack.
func newClientWithBase(base *gh.Client, appID int64, key *rsa.PrivateKey) *Client {
	return &Client{
		base:       base,
		appID:      appID,
		privateKey: key,
		tokens:     newTokenCache(),
		installs:   newInstallationCache(),
	}
}

// clientFor returns a go-github client authenticated with a live
// installation token for owner/repo.
func (c *Client) clientFor(ctx context.Context, owner, repo string) (*gh.Client, error) {
	token, err := c.installationToken(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	return c.base.WithAuthToken(token), nil
}

// appAuthedClient returns a go-github client authenticated with a freshly
// minted app-level JWT, valid only for the App-scoped endpoints (finding
// an installation, minting an installation token).
func (c *Client) appAuthedClient() (*gh.Client, error) {
	signed, err := mintAppJWT(c.appID, c.privateKey)
	if err != nil {
		return nil, fmt.Errorf("mint app jwt: %w", err)
	}
	return c.base.WithAuthToken(signed), nil
}

func (c *Client) installationToken(ctx context.Context, owner, repo string) (string, error) {
	installationID, err := c.resolveInstallation(ctx, owner, repo)
	if err != nil {
		return "", err
	}

	if token, ok := c.tokens.get(installationID); ok {
		return token, nil
	}

	appClient, err := c.appAuthedClient()
	if err != nil {
		return "", err
	}

	tok, _, err := appClient.Apps.CreateInstallationToken(ctx, installationID, nil)
	if err != nil {
		return "", fmt.Errorf("create installation token for installation %d: %w", installationID, err)
	}

	c.tokens.set(installationID, tok.GetToken(), tok.GetExpiresAt().Time)
	return tok.GetToken(), nil
}

func (c *Client) resolveInstallation(ctx context.Context, owner, repo string) (int64, error) {
	key := owner + "/" + repo

	if id, ok := c.installs.get(key); ok {
		return id, nil
	}

	appClient, err := c.appAuthedClient()
	if err != nil {
		return 0, err
	}

	installation, _, err := appClient.Apps.FindRepositoryInstallation(ctx, owner, repo)
	if err != nil {
		return 0, fmt.Errorf("find installation for %s: %w", key, err)
	}

	id := installation.GetID()
	c.installs.set(key, id)
	return id, nil
}

// parsedBaseURL is a small helper used by tests to derive a client whose
// BaseURL points at an httptest server.
func parsedBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	return u, nil
}
