package objectkey

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Generator defines the interface for object key generation strategies.
// Keys must be deterministic in (ownerID, mediaID, variant) so that read
// URLs derived at issuance time keep pointing at the uploaded bytes.
type Generator interface {
	// GenerateKey creates the storage key for one variant of a media.
	GenerateKey(ownerID, mediaID uuid.UUID, variant string) string
}

// OwnerScopedGenerator produces flat owner-scoped keys:
// users/{owner}/media/{media}/{variant}
type OwnerScopedGenerator struct{}

func NewOwnerScopedGenerator() *OwnerScopedGenerator {
	return &OwnerScopedGenerator{}
}

func (g *OwnerScopedGenerator) GenerateKey(ownerID, mediaID uuid.UUID, variant string) string {
	return fmt.Sprintf("users/%s/media/%s/%s", ownerID, mediaID, sanitizePathComponent(variant))
}

// ShardedGenerator produces Git-style sharded keys for backends where
// flat prefixes hot-spot:
// media/{shard}/{rest-of-media-id}/{variant}
type ShardedGenerator struct {
	// ShardLength controls how many characters to use for sharding (default: 2)
	ShardLength int
}

func NewShardedGenerator() *ShardedGenerator {
	return &ShardedGenerator{ShardLength: 2}
}

func (g *ShardedGenerator) GenerateKey(ownerID, mediaID uuid.UUID, variant string) string {
	id := strings.ReplaceAll(mediaID.String(), "-", "")

	n := g.ShardLength
	if n <= 0 || n > len(id) {
		n = 2
	}

	return fmt.Sprintf("media/%s/%s/%s", id[:n], id[n:], sanitizePathComponent(variant))
}

// CustomFuncGenerator allows callers to provide their own key function.
type CustomFuncGenerator struct {
	GenerateFunc func(ownerID, mediaID uuid.UUID, variant string) string
}

func NewCustomFuncGenerator(fn func(ownerID, mediaID uuid.UUID, variant string) string) *CustomFuncGenerator {
	return &CustomFuncGenerator{GenerateFunc: fn}
}

func (g *CustomFuncGenerator) GenerateKey(ownerID, mediaID uuid.UUID, variant string) string {
	return g.GenerateFunc(ownerID, mediaID, variant)
}

// NewRecommendedGenerator returns the generator used by new installations.
func NewRecommendedGenerator() Generator {
	return NewOwnerScopedGenerator()
}

func sanitizePathComponent(component string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	return strings.ToLower(replacer.Replace(component))
}
