package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached page.
type Key struct {
	// Host of the page URL, including port.
	Host string

	// Path of the page URL (e.g. "/logistics/").
	Path string

	// Query holds the query parameters (e.g. {"page": "2"}).
	Query url.Values

	// Principal is a fingerprint of the credentials used for the request.
	Principal string
}

// KeyFor builds the key for a page URL fetched with the given token.
func KeyFor(u *url.URL, token string) Key {
	return Key{
		Host:      strings.ToLower(u.Host),
		Path:      u.Path,
		Query:     u.Query(),
		Principal: Fingerprint(token),
	}
}

// Fingerprint returns a short, stable digest of a token. Empty tokens map to
// an empty fingerprint.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:6])
}

// String generates a deterministic Redis key.
// Format: logistics:host/path:query1=v1:query2=v2a,v2b:auth=fingerprint
//
// Example:
//
//	logistics:api.example.com/logistics:page=2:auth=1f2e3d4c5b6a
func (k Key) String() string {
	parts := []string{"logistics"}

	resource := strings.Trim(k.Host+"/"+strings.Trim(k.Path, "/"), "/")
	if resource != "" {
		parts = append(parts, resource)
	}

	if len(k.Query) > 0 {
		names := make([]string, 0, len(k.Query))
		for name := range k.Query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, strings.Join(k.Query[name], ",")))
		}
	}

	if k.Principal != "" {
		parts = append(parts, "auth="+k.Principal)
	}

	return strings.Join(parts, ":")
}
