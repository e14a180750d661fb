package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"github.com/hammamikhairi/souschef/internal/logger"
)

// DefaultCacheEntries caps the in-memory layer of the audio cache.
const DefaultCacheEntries = 256

// AudioCache keeps synthesized clips in memory and, optionally, on disk.
// Keys are sha256(voice + ":" + text), so switching voices misses.
//
// The disk directory is always read when set. New clips are written to
// it only when diskWrite is true. The memory layer evicts the oldest
// clip once it holds maxEntries.
type AudioCache struct {
	log       *logger.Logger
	voice     string
	dir       string
	diskWrite bool

	mu         sync.Mutex
	entries    map[string][]byte
	order      []string
	maxEntries int
	hits       int64
	misses     int64
}

// NewAudioCache creates a cache. An empty dir disables the disk layer.
func NewAudioCache(voice, dir string, diskWrite bool, log *logger.Logger) *AudioCache {
	c := &AudioCache{
		log:        log,
		voice:      voice,
		dir:        dir,
		diskWrite:  diskWrite,
		entries:    make(map[string][]byte),
		maxEntries: DefaultCacheEntries,
	}
	if dir != "" && diskWrite {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("creating audio cache dir %s: %v", dir, err)
			c.diskWrite = false
		}
	}
	return c
}

// Get returns the clip for text, checking memory then disk.
func (c *AudioCache) Get(text string) ([]byte, bool) {
	key := c.key(text)

	c.mu.Lock()
	data, ok := c.entries[key]
	if ok {
		c.hits++
	}
	c.mu.Unlock()
	if ok {
		return data, true
	}

	if c.dir != "" {
		if data, err := os.ReadFile(c.path(key)); err == nil {
			c.mu.Lock()
			c.storeLocked(key, data)
			c.hits++
			c.mu.Unlock()
			c.log.Debug("audio cache disk hit: %s", truncate(text, 40))
			return data, true
		}
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	return nil, false
}

// Put stores a clip.
func (c *AudioCache) Put(text string, audio []byte) {
	key := c.key(text)
	c.mu.Lock()
	c.storeLocked(key, audio)
	c.mu.Unlock()

	if c.dir != "" && c.diskWrite {
		if err := os.WriteFile(c.path(key), audio, 0o644); err != nil {
			c.log.Warn("audio cache disk write: %v", err)
		}
	}
}

// Has reports whether a clip is cached in either layer.
func (c *AudioCache) Has(text string) bool {
	key := c.key(text)
	c.mu.Lock()
	_, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return true
	}
	if c.dir == "" {
		return false
	}
	_, err := os.Stat(c.path(key))
	return err == nil
}

// Len returns the number of clips held in memory.
func (c *AudioCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns hit and miss counts.
func (c *AudioCache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *AudioCache) storeLocked(key string, audio []byte) {
	if _, ok := c.entries[key]; !ok {
		c.order = append(c.order, key)
	}
	c.entries[key] = audio
	for len(c.order) > c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

func (c *AudioCache) key(text string) string {
	h := sha256.Sum256([]byte(c.voice + ":" + text))
	return hex.EncodeToString(h[:])
}

func (c *AudioCache) path(key string) string {
	return filepath.Join(c.dir, key+".wav")
}
