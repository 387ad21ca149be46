// Package mbtiles stores rendered noise tiles in MBTiles archives. The
// shader parameters that produced a tileset are kept in its metadata so the
// archive can be extended or re-rendered later.
package mbtiles

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrTileNotFound is returned by Reader.ReadTile for missing tiles.
var ErrTileNotFound = errors.New("tile not found")

// paramsKey is the metadata row holding the shader parameters as JSON.
const paramsKey = "fastnoise_params"

// Metadata describes a noise tileset.
type Metadata struct {
	Name        string
	Format      string // png
	Description string
	Type        string // "baselayer" or "overlay"
	Version     string
	MinZoom     int
	MaxZoom     int
	// TileSize is the pixel edge length of each tile.
	TileSize int
	// Params is the flat shader parameter mapping (params.Values.Map).
	Params map[string]any
}

// ToMap converts Metadata into metadata table rows.
func (m Metadata) ToMap() (map[string]string, error) {
	rows := map[string]string{
		"minzoom": strconv.Itoa(m.MinZoom),
		"maxzoom": strconv.Itoa(m.MaxZoom),
	}

	set := func(key, value string) {
		if value != "" {
			rows[key] = value
		}
	}
	set("name", m.Name)
	set("format", m.Format)
	set("description", m.Description)
	set("type", m.Type)
	set("version", m.Version)
	if m.TileSize > 0 {
		rows["tilesize"] = strconv.Itoa(m.TileSize)
	}

	if m.Params != nil {
		b, err := json.Marshal(m.Params)
		if err != nil {
			return nil, fmt.Errorf("failed to encode shader parameters: %w", err)
		}
		rows[paramsKey] = string(b)
	}

	return rows, nil
}

// metadataFromMap parses metadata rows. Unparseable numbers are left at zero.
func metadataFromMap(rows map[string]string) (Metadata, error) {
	m := Metadata{
		Name:        rows["name"],
		Format:      rows["format"],
		Description: rows["description"],
		Type:        rows["type"],
		Version:     rows["version"],
	}

	atoi := func(key string) int {
		i, _ := strconv.Atoi(rows[key])
		return i
	}
	m.MinZoom = atoi("minzoom")
	m.MaxZoom = atoi("maxzoom")
	m.TileSize = atoi("tilesize")

	if raw, ok := rows[paramsKey]; ok {
		if err := json.Unmarshal([]byte(raw), &m.Params); err != nil {
			return Metadata{}, fmt.Errorf("failed to decode shader parameters: %w", err)
		}
	}

	return m, nil
}
