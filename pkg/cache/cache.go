// Package cache provides content-addressed caching of rendered artifacts.
//
// Rendering a large tree through graphviz is the only expensive step in the
// pipeline, so exports are cached keyed by a hash of the tree snapshot plus
// the render options. Backends:
//   - file: local cache under the XDG cache directory (CLI default)
//   - redis: shared cache for server deployments
//   - null: caching disabled
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Cache stores opaque byte values with optional expiration.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A non-positive ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ArtifactKey builds the cache key for a rendered artifact: a hash of the
// serialized tree snapshot combined with the output format and style
// options. Identical trees with identical options share one entry.
func ArtifactKey(snapshotJSON []byte, format string, opts ...string) string {
	return hashKey("artifact", Hash(snapshotJSON), format, opts)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// keyType extracts the prefix of a cache key ("artifact" from
// "artifact:ab12...") for observability events.
func keyType(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
