package brain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// MeshCache is the sqlite index over the generated mesh directory:
// which prompt produced which file, and how often it was reused.
type MeshCache struct {
	db *sql.DB
}

func OpenMeshCache(path string) (*MeshCache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("mesh cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open mesh cache: %w", err)
	}

	cache := &MeshCache{
		db: db,
	}
	if err := cache.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return cache, nil
}

func (self *MeshCache) migrate(ctx context.Context) error {
	_, err := self.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS meshes (
            key TEXT PRIMARY KEY,
            primitive TEXT NOT NULL,
            file TEXT NOT NULL,
            hits INTEGER NOT NULL DEFAULT 0,
            created_at TIMESTAMP NOT NULL
        )
    `)
	if err != nil {
		return fmt.Errorf("mesh cache migrate: %w", err)
	}
	return nil
}

// Record upserts the index entry for a newly generated mesh.
func (self *MeshCache) Record(ctx context.Context, key string, primitive string, file string) error {
	_, err := self.db.ExecContext(ctx, `
        INSERT INTO meshes (key, primitive, file, hits, created_at)
        VALUES (?, ?, ?, 0, ?)
        ON CONFLICT (key) DO UPDATE SET primitive = excluded.primitive, file = excluded.file
    `, key, primitive, file, time.Now().UTC())
	return err
}

// Lookup returns the cached file for a prompt key.
func (self *MeshCache) Lookup(ctx context.Context, key string) (string, bool, error) {
	row := self.db.QueryRowContext(ctx, `
        SELECT file FROM meshes WHERE key = ?
    `, key)

	var file string
	if err := row.Scan(&file); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return file, true, nil
}

// Touch bumps the hit counter for a cache hit. Best effort.
func (self *MeshCache) Touch(ctx context.Context, key string) {
	self.db.ExecContext(ctx, `
        UPDATE meshes SET hits = hits + 1 WHERE key = ?
    `, key)
}

func (self *MeshCache) Close() error {
	return self.db.Close()
}
