package artwork

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// keepImages is how many art files survive a prune: the current one and
// the one before it.
const keepImages = 2

// artPrefix marks the files a Cache owns. Anything else in the directory
// is left alone.
const artPrefix = "art-"

// Cache is the directory of downloaded album art, one file per track ID.
type Cache struct {
	dir    string
	logger *zap.Logger

	// recent holds the most recently published paths, newest last.
	recent []string
}

// NewCache creates a cache rooted at dir.
func NewCache(dir string, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{dir: dir, logger: logger}
}

// Path returns the absolute file path for a track's art.
func (c *Cache) Path(trackID, ext string) (string, error) {
	name := sanitize(trackID)
	if name == "" {
		return "", fmt.Errorf("invalid track ID %q", trackID)
	}
	abs, err := filepath.Abs(filepath.Join(c.dir, artPrefix+name+ext))
	if err != nil {
		return "", fmt.Errorf("failed to resolve cache path: %w", err)
	}
	return abs, nil
}

// Commit records path as the published image and deletes every other art
// file except the previously published one. Deletion failures are
// ignored. Returns the number of files removed.
func (c *Cache) Commit(path string) int {
	if n := len(c.recent); n == 0 || c.recent[n-1] != path {
		c.recent = append(c.recent, path)
	}
	if len(c.recent) > keepImages {
		c.recent = c.recent[len(c.recent)-keepImages:]
	}
	return c.prune()
}

func (c *Cache) prune() int {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0
	}

	keep := make(map[string]bool, len(c.recent))
	for _, p := range c.recent {
		keep[filepath.Base(p)] = true
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || keep[e.Name()] || !isArtFile(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			c.logger.Debug("failed to remove cached art", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		c.logger.Debug("pruned art cache", zap.Int("removed", removed))
	}
	return removed
}

func isArtFile(name string) bool {
	if strings.HasPrefix(name, "."+artPrefix) && strings.HasSuffix(name, ".tmp") {
		return true
	}
	if !strings.HasPrefix(name, artPrefix) {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif":
		return true
	}
	return false
}

// sanitize keeps track IDs safe as file names.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return -1
		}
	}, id)
}
