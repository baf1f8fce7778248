package etag

import (
	"crypto/sha1"
	"encoding/hex"
)

// Body is the payload of a response as seen by the fingerprinting step.
// It is either Materialized or Streaming.
type Body interface {
	isBody()
}

// Materialized is a response body that has been fully produced and buffered.
type Materialized struct {
	Data []byte
}

// Streaming is a response body that is written to the client incrementally
// and is never available as a whole.
type Streaming struct{}

func (Materialized) isBody() {}
func (Streaming) isBody()    {}

// Compute returns the strong entity-tag for data: the lowercase hex SHA-1
// digest wrapped in double quotes.
func Compute(data []byte) string {
	sum := sha1.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// Fingerprint returns the entity-tag for body.
// Returns ok==false for streaming (or missing) bodies, which are never tagged.
func Fingerprint(body Body) (string, bool) {
	switch b := body.(type) {
	case Materialized:
		return Compute(b.Data), true
	case *Materialized:
		if b == nil {
			return "", false
		}
		return Compute(b.Data), true
	default:
		return "", false
	}
}
