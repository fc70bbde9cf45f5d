// Package cache provides the artifact cache used by the conversion
// pipeline. Rendered artifacts (SVG, PNG, PDF) are keyed by the content
// hash of the serialized model plus the render options, so a re-run over
// unchanged input is a pure cache read. Conversion itself is never
// cached: it is deterministic and cheaper than the disk round trip for
// typical graphs.
package cache

import (
	"context"
	"fmt"
	"time"
)

// TTLArtifact is the default expiry for cached rendered artifacts.
// Artifacts are keyed by content hash, so stale entries are never served;
// the TTL only bounds disk growth.
const TTLArtifact = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with per-entry expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// ArtifactKey builds the cache key for one rendered artifact: the model
// content hash scoped by output format and render options digest.
func ArtifactKey(modelHash, format, optsDigest string) string {
	return fmt.Sprintf("artifact:%s:%s:%s", format, optsDigest, modelHash)
}
