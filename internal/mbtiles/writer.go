package mbtiles

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"fmt"
	"sync"

	"github.com/MeKo-Tech/fastnoise/internal/tile"

	_ "modernc.org/sqlite" // SQLite driver
)

// DefaultBatchSize is the number of tiles buffered before a flush.
const DefaultBatchSize = 100

type pending struct {
	coords tile.Coords
	data   []byte
}

// Writer writes noise tiles to an MBTiles database. It is safe for
// concurrent use.
type Writer struct {
	db        *sql.DB
	path      string
	batch     []pending
	batchSize int
	mu        sync.Mutex
}

// New opens or creates an archive and replaces its metadata.
func New(path string, meta Metadata) (*Writer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := writeMetadata(db, meta); err != nil {
		db.Close()
		return nil, err
	}

	return &Writer{
		db:        db,
		path:      path,
		batch:     make([]pending, 0, DefaultBatchSize),
		batchSize: DefaultBatchSize,
	}, nil
}

func createSchema(db *sql.DB) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS metadata (
			name TEXT NOT NULL,
			value TEXT
		);

		CREATE TABLE IF NOT EXISTS tiles (
			zoom_level INTEGER NOT NULL,
			tile_column INTEGER NOT NULL,
			tile_row INTEGER NOT NULL,
			tile_data BLOB NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS tile_index ON tiles (zoom_level, tile_column, tile_row);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func writeMetadata(db *sql.DB, meta Metadata) error {
	rows, err := meta.ToMap()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	if _, err := tx.Exec("DELETE FROM metadata"); err != nil {
		return fmt.Errorf("failed to clear metadata: %w", err)
	}
	for name, value := range rows {
		if _, err := tx.Exec("INSERT INTO metadata (name, value) VALUES (?, ?)", name, value); err != nil {
			return fmt.Errorf("failed to insert metadata %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit metadata: %w", err)
	}
	return nil
}

// tmsRow flips an XYZ row into the TMS row stored in the tiles table.
func tmsRow(c tile.Coords) uint32 {
	return (uint32(1) << c.Z) - 1 - c.Y
}

// WriteTile buffers a PNG tile and flushes when the batch is full.
func (w *Writer) WriteTile(c tile.Coords, png []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.batch = append(w.batch, pending{coords: c, data: png})
	if len(w.batch) >= w.batchSize {
		return w.flushLocked()
	}
	return nil
}

// Put stores a tile and reports its archive location.
func (w *Writer) Put(c tile.Coords, png []byte) (string, error) {
	if err := w.WriteTile(c, png); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s#%d/%d/%d", w.path, c.Z, c.X, c.Y), nil
}

// Exists reports whether a tile is buffered or already stored.
func (w *Writer) Exists(c tile.Coords) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, p := range w.batch {
		if p.coords == c {
			return true, nil
		}
	}

	var n int
	err := w.db.QueryRow(
		"SELECT COUNT(*) FROM tiles WHERE zoom_level=? AND tile_column=? AND tile_row=?",
		c.Z, c.X, tmsRow(c),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query tile: %w", err)
	}
	return n > 0, nil
}

// Flush writes buffered tiles to the database.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

func (w *Writer) flushLocked() error {
	if len(w.batch) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range w.batch {
		blob, err := gzipBytes(p.data)
		if err != nil {
			return fmt.Errorf("failed to compress tile %s: %w", p.coords, err)
		}
		if _, err := stmt.Exec(p.coords.Z, p.coords.X, tmsRow(p.coords), blob); err != nil {
			return fmt.Errorf("failed to insert tile %s: %w", p.coords, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.batch = w.batch[:0]
	return nil
}

// Close flushes remaining tiles and closes the database.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		w.db.Close()
		return err
	}
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		gw.Close()
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
