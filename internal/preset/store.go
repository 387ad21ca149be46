// Package preset keeps named shader parameter sets in a SQLite database.
package preset

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MeKo-Tech/fastnoise/internal/params"
	"github.com/google/uuid"

	_ "modernc.org/sqlite" // SQLite driver
)

// ErrNotFound is returned when no preset has the requested name.
var ErrNotFound = errors.New("preset not found")

const schema = `
CREATE TABLE IF NOT EXISTS presets (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	params     TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
`

// Preset is a stored parameter set.
type Preset struct {
	ID        string
	Name      string
	Values    params.Values
	CreatedAt time.Time
}

// Store manages presets in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the preset database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open preset database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create preset schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores v under name. Saving an existing name replaces its parameters
// and keeps its id and creation time.
func (s *Store) Save(ctx context.Context, name string, v params.Values) (Preset, error) {
	if name == "" {
		return Preset{}, errors.New("preset name must not be empty")
	}

	raw, err := json.Marshal(v.Map())
	if err != nil {
		return Preset{}, fmt.Errorf("failed to encode preset: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO presets (id, name, params, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET params = excluded.params`,
		uuid.New().String(), name, string(raw), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return Preset{}, fmt.Errorf("failed to save preset %q: %w", name, err)
	}

	return s.Get(ctx, name)
}

// Get loads a preset by name.
func (s *Store) Get(ctx context.Context, name string) (Preset, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, params, created_at FROM presets WHERE name = ?", name)

	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Preset{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return Preset{}, err
	}
	return p, nil
}

// List returns all presets ordered by name.
func (s *Store) List(ctx context.Context) ([]Preset, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, params, created_at FROM presets ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}
	defer rows.Close()

	var out []Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate presets: %w", err)
	}
	return out, nil
}

// Delete removes a preset.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM presets WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete preset %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete preset %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreset(sc scanner) (Preset, error) {
	var (
		p       Preset
		raw     string
		created int64
	)
	if err := sc.Scan(&p.ID, &p.Name, &raw, &created); err != nil {
		return Preset{}, err
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return Preset{}, fmt.Errorf("failed to decode preset %q: %w", p.Name, err)
	}
	v, err := params.Decode(m)
	if err != nil {
		return Preset{}, fmt.Errorf("failed to decode preset %q: %w", p.Name, err)
	}

	p.Values = v
	p.CreatedAt = time.UnixMilli(created).UTC()
	return p, nil
}
