package forge

import (
	"sync"
	"time"
)

// tokenExpiryBuffer keeps a token out of rotation once it's within a
// minute of expiring, matching the buffer spec.md's shared-state rules
// require for the installation-token cache.
const tokenExpiryBuffer = 60 * time.Second

// installationTTL bounds how long a repo→installation mapping is trusted
// before resolveInstallation re-checks it with GitHub. Installations are
// added/removed far less often than tokens rotate, so this is generous.
const installationTTL = 10 * time.Minute

type tokenEntry struct {
	token     string
	expiresAt time.Time
}

// tokenCache maps an installation ID to its current access token. It is a
// process-wide, concurrency-safe mapping bounded by process lifetime — no
// persistence, no distribution, by design.
type tokenCache struct {
	entries sync.Map // int64 -> tokenEntry
}

func newTokenCache() *tokenCache {
	return &tokenCache{}
}

func (c *tokenCache) get(installationID int64) (string, bool) {
	v, ok := c.entries.Load(installationID)
	if !ok {
		return "", false
	}
	entry := v.(tokenEntry)
	if time.Now().Add(tokenExpiryBuffer).After(entry.expiresAt) {
		return "", false
	}
	return entry.token, true
}

func (c *tokenCache) set(installationID int64, token string, expiresAt time.Time) {
	c.entries.Store(installationID, tokenEntry{token: token, expiresAt: expiresAt})
}

type installationEntry struct {
	id        int64
	expiresAt time.Time
}

// installationCache maps "owner/repo" to the installation ID GitHub
// resolved it to, avoiding a FindRepositoryInstallation round trip on
// every review.
type installationCache struct {
	entries sync.Map // string -> installationEntry
}

func newInstallationCache() *installationCache {
	return &installationCache{}
}

func (c *installationCache) get(key string) (int64, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		return 0, false
	}
	entry := v.(installationEntry)
	if time.Now().After(entry.expiresAt) {
		return 0, false
	}
	return entry.id, true
}

func (c *installationCache) set(key string, id int64) {
	c.entries.Store(key, installationEntry{id: id, expiresAt: time.Now().Add(installationTTL)})
}
