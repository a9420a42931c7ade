package enrich

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lueurxax/tgway/internal/link"
)

// EntityKind discriminates the shape of a cached entity. It is resolved once
// at fetch time so downstream code never probes for optional attributes.
type EntityKind string

const (
	EntityUser       EntityKind = "user"
	EntityBot        EntityKind = "bot"
	EntityChannel    EntityKind = "channel"
	EntityChat       EntityKind = "chat"
	EntityStickerSet EntityKind = "stickerset"
)

// CacheEntry is the normalized snapshot of entity and message attributes
// fetched by the authenticated strategy. It is persisted as one JSON file
// per key and never expired; manual deletion is the only eviction path.
type CacheEntry struct {
	Kind        EntityKind `json:"kind"`
	Title       string     `json:"title,omitempty"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	Username    string     `json:"username,omitempty"`
	About       string     `json:"about,omitempty"`
	Broadcast   bool       `json:"broadcast,omitempty"`
	Members     int        `json:"members,omitempty"`
	Stickers    int        `json:"stickers,omitempty"`
	MessageText string     `json:"message_text,omitempty"`
	HasPhoto    bool       `json:"has_photo,omitempty"`
}

// MetadataCache stores CacheEntry snapshots on local disk. Concurrent writers
// to the same key race benignly: writes are deterministic functions of the
// key and last-writer-wins is acceptable.
type MetadataCache struct {
	dir string
}

func NewMetadataCache(dir string) (*MetadataCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &MetadataCache{dir: dir}, nil
}

// CacheKey computes the cache key for a target: the identifier alone, or
// identifier-postId for posts.
func CacheKey(target *link.Target) string {
	if target.Kind == link.KindPost {
		return target.Identifier + "-" + strconv.Itoa(target.PostID)
	}

	return target.Identifier
}

// Get returns the cached entry for the key. Unparsable or unreadable files
// count as a miss.
func (c *MetadataCache) Get(key string) (*CacheEntry, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		cacheHitsTotal.WithLabelValues("miss").Inc()

		return nil, false
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupt cache file; treat as a miss so the entry gets refetched.
		cacheHitsTotal.WithLabelValues("corrupt").Inc()

		return nil, false
	}

	cacheHitsTotal.WithLabelValues("hit").Inc()

	return &entry, true
}

// Put persists the entry for the key, overwriting any previous snapshot.
func (c *MetadataCache) Put(key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := os.WriteFile(c.path(key), data, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}

	return nil
}

func (c *MetadataCache) path(key string) string {
	return filepath.Join(c.dir, sanitizeKey(key)+".json")
}

// sanitizeKey keeps cache file names safe for any filesystem. Identifiers are
// already word characters; invite codes may carry +, - and similar.
func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, key)
}
