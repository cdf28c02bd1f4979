package datacube

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vk/semcube/internal/array"
	"github.com/vk/semcube/internal/extent"
	"github.com/vk/semcube/internal/valuetype"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteCube serves layers from a SQLite database, using the same layer
// model as the memory cube.
type SQLiteCube struct {
	db *sql.DB
}

// OpenSQLite creates or opens a cube database at the given path and applies
// the schema. Safe to call on an existing database.
func OpenSQLite(path string) (*SQLiteCube, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cube database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to cube database: %w", err)
	}
	// SQLite supports a single writer; keep one connection to avoid
	// SQLITE_BUSY during layer imports.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLiteCube{db: db}, nil
}

// Close releases the database handle.
func (c *SQLiteCube) Close() error {
	return c.db.Close()
}

// WriteLayer persists a layer under the given reference, replacing any
// existing layer with the same reference.
func (c *SQLiteCube) WriteLayer(ctx context.Context, reference []string, layer *array.Array) error {
	key := refKey(reference)
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM layer_cells WHERE layer = ?",
		"DELETE FROM layer_coords WHERE layer = ?",
		"DELETE FROM layer_axes WHERE layer = ?",
		"DELETE FROM layers WHERE name = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, key); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO layers (name, value_type) VALUES (?, ?)",
		key, layer.ValueType().String()); err != nil {
		return err
	}
	for pos, ax := range layer.Axes() {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO layer_axes (layer, pos, name) VALUES (?, ?, ?)",
			key, pos, ax.Name); err != nil {
			return err
		}
		for idx, label := range ax.Coords {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO layer_coords (layer, axis_pos, idx, label) VALUES (?, ?, ?, ?)",
				key, pos, idx, label); err != nil {
				return err
			}
		}
	}
	for idx, v := range layer.Data() {
		var value any
		if !array.IsNoData(v) {
			value = v
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO layer_cells (layer, idx, value) VALUES (?, ?, ?)",
			key, idx, value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Lookup implements Datacube.
func (c *SQLiteCube) Lookup(reference []string) error {
	var one int
	err := c.db.QueryRow(
		"SELECT 1 FROM layers WHERE name = ?", refKey(reference)).Scan(&one)
	if err == sql.ErrNoRows {
		return &LayerNotFoundError{Reference: reference}
	}
	return err
}

// Retrieve implements Datacube.
func (c *SQLiteCube) Retrieve(ctx context.Context, reference []string, ext *extent.Extent) (*array.Array, error) {
	layer, err := c.loadLayer(ctx, reference)
	if err != nil {
		return nil, err
	}
	return clip(layer, ext)
}

func (c *SQLiteCube) loadLayer(ctx context.Context, reference []string) (*array.Array, error) {
	key := refKey(reference)

	var typeName string
	err := c.db.QueryRowContext(ctx,
		"SELECT value_type FROM layers WHERE name = ?", key).Scan(&typeName)
	if err == sql.ErrNoRows {
		return nil, &LayerNotFoundError{Reference: reference}
	}
	if err != nil {
		return nil, err
	}
	vtype, err := valuetype.ParseType(typeName)
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", key, err)
	}

	axes, err := c.loadAxes(ctx, key)
	if err != nil {
		return nil, err
	}

	size := 1
	for _, ax := range axes {
		size *= ax.Len()
	}
	data := make([]float64, size)
	for i := range data {
		data[i] = array.NoData()
	}
	rows, err := c.db.QueryContext(ctx,
		"SELECT idx, value FROM layer_cells WHERE layer = ? ORDER BY idx ASC", key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var idx int
		var value sql.NullFloat64
		if err := rows.Scan(&idx, &value); err != nil {
			return nil, err
		}
		if idx < 0 || idx >= size {
			return nil, fmt.Errorf("layer %q: cell index %d outside its axes", key, idx)
		}
		if value.Valid {
			data[idx] = value.Float64
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return array.New(key, vtype, axes, data)
}

func (c *SQLiteCube) loadAxes(ctx context.Context, key string) ([]array.Axis, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT pos, name FROM layer_axes WHERE layer = ? ORDER BY pos ASC", key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var axes []array.Axis
	for rows.Next() {
		var pos int
		var name string
		if err := rows.Scan(&pos, &name); err != nil {
			return nil, err
		}
		axes = append(axes, array.Axis{Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for pos := range axes {
		coordRows, err := c.db.QueryContext(ctx,
			"SELECT label FROM layer_coords WHERE layer = ? AND axis_pos = ? ORDER BY idx ASC",
			key, pos)
		if err != nil {
			return nil, err
		}
		for coordRows.Next() {
			var label string
			if err := coordRows.Scan(&label); err != nil {
				coordRows.Close()
				return nil, err
			}
			axes[pos].Coords = append(axes[pos].Coords, label)
		}
		if err := coordRows.Err(); err != nil {
			coordRows.Close()
			return nil, err
		}
		coordRows.Close()
	}
	return axes, nil
}
