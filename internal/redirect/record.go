package redirect

import (
	"maps"
	"time"
)

const (
	// DefaultTable is the table the records live in unless configured otherwise.
	DefaultTable = "ShortenedUrls"
	// DefaultPrimaryKey is the name of the attribute holding the identifier.
	DefaultPrimaryKey = "urlId"
)

// Attribute names of the persisted record.
const (
	AttrOriginalURL  = "originalURL"
	AttrTTLInSeconds = "ttlInSeconds"
	AttrTTL          = "ttl"
)

// ID is a caller-chosen short identifier.
type ID string

// Clock returns the current time. Handlers and stores take one so tests can pin it.
type Clock func() time.Time

// Record maps an identifier to the URL it redirects to.
type Record struct {
	ID           ID
	OriginalURL  string
	TTLInSeconds int64
	// TTL is the absolute expiration instant in epoch seconds.
	TTL int64
	// Attributes are extra caller-supplied values stored alongside the record.
	Attributes map[string]string
}

// NewRecord builds a record whose expiration is derived from now and the requested lifetime.
func NewRecord(id ID, originalURL string, ttlInSeconds int64, attrs map[string]string, now time.Time) *Record {
	return &Record{
		ID:           id,
		OriginalURL:  originalURL,
		TTLInSeconds: ttlInSeconds,
		TTL:          ExpiresAt(now, ttlInSeconds),
		Attributes:   maps.Clone(attrs),
	}
}

// ExpiresAt returns now + ttlInSeconds as epoch seconds.
func ExpiresAt(now time.Time, ttlInSeconds int64) int64 {
	return now.Unix() + ttlInSeconds
}

// Expired reports whether the record's expiration instant has passed.
// A record without a TTL never expires.
func (r *Record) Expired(now time.Time) bool {
	return r.TTL > 0 && r.TTL <= now.Unix()
}

// ExpiresAtTime returns the expiration instant as a time.Time.
func (r *Record) ExpiresAtTime() time.Time {
	return time.Unix(r.TTL, 0)
}

// Clone returns a deep copy so stores never hand out shared maps.
func (r *Record) Clone() *Record {
	c := *r
	c.Attributes = maps.Clone(r.Attributes)

	return &c
}
