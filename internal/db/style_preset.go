package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/banshee-data/raster.viewer/internal/style"
)

// StylePreset is the last style applied to a layer.
type StylePreset struct {
	LayerID   string       `json:"layer_id"`
	Params    style.Params `json:"params"`
	CreatedAt float64      `json:"created_at"`
	UpdatedAt float64      `json:"updated_at"`
}

const presetColumns = `layer_id, min_value, med_value, max_value, color_low, color_mid, color_high,
	opacity, nodata_value, nodata_opacity, nodata_color, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPreset(row rowScanner) (*StylePreset, error) {
	var (
		p           StylePreset
		noDataVal   sql.NullFloat64
		noDataOp    sql.NullFloat64
		noDataColor sql.NullString
	)
	err := row.Scan(
		&p.LayerID,
		&p.Params.Min, &p.Params.Med, &p.Params.Max,
		&p.Params.ColorLow, &p.Params.ColorMid, &p.Params.ColorHigh,
		&p.Params.Opacity,
		&noDataVal, &noDataOp, &noDataColor,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if noDataVal.Valid {
		v := noDataVal.Float64
		p.Params.NoDataValue = &v
	}
	if noDataOp.Valid {
		v := noDataOp.Float64
		p.Params.NoDataOpacity = &v
	}
	p.Params.NoDataColor = noDataColor.String
	return &p, nil
}

// GetStylePreset returns the saved style for layerID, or nil if none exists.
func (db *DB) GetStylePreset(layerID string) (*style.Params, error) {
	p, err := db.GetStylePresetRecord(layerID)
	if err != nil || p == nil {
		return nil, err
	}
	return &p.Params, nil
}

// GetStylePresetRecord returns the full preset row for layerID, or nil.
func (db *DB) GetStylePresetRecord(layerID string) (*StylePreset, error) {
	row := db.QueryRow(`SELECT `+presetColumns+` FROM style_presets WHERE layer_id = ?`, layerID)
	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found is OK
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query style preset: %w", err)
	}
	return p, nil
}

// SaveStylePreset stores params as the preset for layerID, replacing any
// earlier one. Colours are stored normalized.
func (db *DB) SaveStylePreset(layerID string, params style.Params) error {
	if layerID == "" {
		return fmt.Errorf("layer id is required")
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("invalid style preset: %w", err)
	}
	p := params.Normalized()

	var noDataColor interface{}
	if p.NoDataColor != "" {
		noDataColor = p.NoDataColor
	}
	_, err := db.Exec(`
		INSERT INTO style_presets (
			layer_id, min_value, med_value, max_value, color_low, color_mid, color_high,
			opacity, nodata_value, nodata_opacity, nodata_color
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(layer_id) DO UPDATE SET
			min_value = excluded.min_value,
			med_value = excluded.med_value,
			max_value = excluded.max_value,
			color_low = excluded.color_low,
			color_mid = excluded.color_mid,
			color_high = excluded.color_high,
			opacity = excluded.opacity,
			nodata_value = excluded.nodata_value,
			nodata_opacity = excluded.nodata_opacity,
			nodata_color = excluded.nodata_color,
			updated_at = UNIXEPOCH('subsec')`,
		layerID, p.Min, p.Med, p.Max, p.ColorLow, p.ColorMid, p.ColorHigh,
		p.Opacity, p.NoDataValue, p.NoDataOpacity, noDataColor,
	)
	if err != nil {
		return fmt.Errorf("failed to save style preset: %w", err)
	}
	return nil
}

// ListStylePresets returns every saved preset ordered by layer id.
func (db *DB) ListStylePresets() ([]StylePreset, error) {
	rows, err := db.Query(`SELECT ` + presetColumns + ` FROM style_presets ORDER BY layer_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query style presets: %w", err)
	}
	defer rows.Close()

	var presets []StylePreset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan style preset: %w", err)
		}
		presets = append(presets, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating style presets: %w", err)
	}
	return presets, nil
}

// DeleteStylePreset removes the preset for layerID. Deleting a missing preset
// is not an error.
func (db *DB) DeleteStylePreset(layerID string) error {
	if _, err := db.Exec(`DELETE FROM style_presets WHERE layer_id = ?`, layerID); err != nil {
		return fmt.Errorf("failed to delete style preset: %w", err)
	}
	return nil
}
