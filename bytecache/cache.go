// Package bytecache caches compiled bytecode across builds. Entries are
// keyed by a content hash of the transformed source plus the engine
// identity, stored zstd-compressed in an embedded sqlite index. Bytecode
// is only valid for the exact engine build that compiled it, so the engine
// identity is part of the key.
package bytecache

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	key     TEXT PRIMARY KEY,
	data    BLOB NOT NULL,
	meta    BLOB NOT NULL
);
`

// entryMeta travels alongside each cached blob.
type entryMeta struct {
	Engine  string `cbor:"1,keyasint"`
	RawSize int    `cbor:"2,keyasint"`
	Created int64  `cbor:"3,keyasint"`
}

// Cache is an on-disk compile cache. Safe for concurrent use; sqlite
// serializes writers.
type Cache struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open creates or opens the cache under dir.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("bytecache: creating %s: %w", dir, err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, "bytecache.db"))
	if err != nil {
		return nil, fmt.Errorf("bytecache: opening index: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bytecache: creating schema: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bytecache: zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bytecache: zstd decoder: %w", err)
	}
	return &Cache{db: db, enc: enc, dec: dec}, nil
}

// Close releases the index and compressor state.
func (c *Cache) Close() error {
	c.enc.Close()
	c.dec.Close()
	return c.db.Close()
}

// Key derives the cache key for a source text compiled by the given
// engine.
func Key(source, engine string) string {
	h := blake3.New()
	h.Write([]byte(engine))
	h.Write([]byte{0})
	h.Write([]byte(source))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached bytecode for key, or ok=false on a miss.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	var data []byte
	err := c.db.QueryRow("SELECT data FROM entries WHERE key = ?", key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("bytecache: reading %s: %w", key, err)
	}
	raw, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, false, fmt.Errorf("bytecache: decompressing %s: %w", key, err)
	}
	return raw, true, nil
}

// Put stores bytecode under key, replacing any existing entry.
func (c *Cache) Put(key, engine string, bytecode []byte) error {
	meta, err := cbor.Marshal(entryMeta{
		Engine:  engine,
		RawSize: len(bytecode),
		Created: time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("bytecache: encoding metadata: %w", err)
	}
	compressed := c.enc.EncodeAll(bytecode, nil)
	if _, err := c.db.Exec(
		"INSERT OR REPLACE INTO entries (key, data, meta) VALUES (?, ?, ?)",
		key, compressed, meta,
	); err != nil {
		return fmt.Errorf("bytecache: storing %s: %w", key, err)
	}
	return nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() (int, error) {
	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("bytecache: counting entries: %w", err)
	}
	return n, nil
}
