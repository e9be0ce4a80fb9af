package entities

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportConfig_JSONKeys(t *testing.T) {
	cfg := ExportConfig{
		ExportPath: "/tmp/out",
		Metadata:   MetadataConfig{Author: true, DateLastRead: true},
		DateFormat: DateFormatDDMMYYYY,
	}

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "dd_mm_yyyy", raw["date_format"])
	assert.Equal(t, "/tmp/out", raw["export_path"])

	meta := raw["metadata"].(map[string]any)
	for _, key := range []string{"author", "isbn", "publisher", "date_last_read", "language", "description"} {
		assert.Contains(t, meta, key)
	}
	assert.Equal(t, true, meta["date_last_read"])
}

func TestDateFormat_RejectsUnknownValues(t *testing.T) {
	var cfg ExportConfig
	err := json.Unmarshal([]byte(`{"date_format":"DdMonthYyyy"}`), &cfg)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"date_format":"iso8601"}`), &cfg)
	require.NoError(t, err)
	assert.Equal(t, DateFormatISO8601, cfg.DateFormat)
}

func TestDefaultExportConfig(t *testing.T) {
	cfg := DefaultExportConfig()

	assert.False(t, cfg.Metadata.Any())
	assert.Equal(t, DateFormatDDMonthYYYY, cfg.DateFormat)
	assert.NotEmpty(t, cfg.ExportPath)
	assert.NoError(t, cfg.Validate())
}

func TestExportConfig_Validate(t *testing.T) {
	assert.Error(t, ExportConfig{DateFormat: DateFormatISO8601}.Validate())
	assert.Error(t, ExportConfig{ExportPath: "/x", DateFormat: "weekly"}.Validate())
}

func TestItemFailure_JSON(t *testing.T) {
	f := ItemFailure{Key: "book-1", Stage: StageCover, Err: errors.New("zip: not a valid zip file")}

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"book-1","stage":"cover","error":"zip: not a valid zip file"}`, string(data))
	assert.Equal(t, "cover book-1: zip: not a valid zip file", f.Error())
}

func TestDevice_Paths(t *testing.T) {
	d := Device{Name: "KOBOeReader", Path: "/Volumes/KOBOeReader"}

	assert.Equal(t, "/Volumes/KOBOeReader/.kobo/KoboReader.sqlite", d.DatabasePath())
	assert.Equal(t, "/Volumes/KOBOeReader/Books/A.epub", d.ResolvePath("Books/A.epub"))
	assert.Equal(t, "", d.ResolvePath(""))
	assert.Equal(t, "/Volumes/KOBOeReader", d.Identifier())

	d.SerialNumber = "N418"
	assert.Equal(t, "N418", d.Identifier())
}
