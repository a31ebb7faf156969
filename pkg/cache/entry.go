package cache

import (
	"time"
)

// Entry is a cached page body together with its revalidation metadata.
type Entry struct {
	// Body is the raw page body as returned by the API.
	Body []byte `json:"body"`

	// ETag from the response, sent back as If-None-Match.
	ETag string `json:"etag,omitempty"`

	// LastModified from the response, sent back as If-Modified-Since.
	LastModified time.Time `json:"last_modified,omitempty"`

	// Expires is when the entry stops being served.
	Expires time.Time `json:"expires"`

	// StoredAt is when the entry was written.
	StoredAt time.Time `json:"stored_at"`
}

// IsExpired reports whether the entry is past its expiry time.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time left until expiry, or 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
