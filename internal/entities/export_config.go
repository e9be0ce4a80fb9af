package entities

import (
	"fmt"
	"os"
	"path/filepath"
)

type DateFormat string

const (
	DateFormatDDMMYYYY    DateFormat = "dd_mm_yyyy"
	DateFormatDDMonthYYYY DateFormat = "dd_month_yyyy"
	DateFormatISO8601     DateFormat = "iso8601"
)

// DateFormats lists every accepted date format, in display order.
var DateFormats = []DateFormat{DateFormatDDMMYYYY, DateFormatDDMonthYYYY, DateFormatISO8601}

// ParseDateFormat validates a serialized date format value.
func ParseDateFormat(s string) (DateFormat, error) {
	for _, f := range DateFormats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown date format %q (expected one of dd_mm_yyyy, dd_month_yyyy, iso8601)", s)
}

func (f *DateFormat) UnmarshalText(text []byte) error {
	parsed, err := ParseDateFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func (f DateFormat) MarshalText() ([]byte, error) {
	return []byte(f), nil
}

// MetadataConfig selects which book fields appear in the exported header.
type MetadataConfig struct {
	Author       bool `json:"author"`
	ISBN         bool `json:"isbn"`
	Publisher    bool `json:"publisher"`
	DateLastRead bool `json:"date_last_read"`
	Language     bool `json:"language"`
	Description  bool `json:"description"`
}

// Any reports whether at least one field is enabled.
func (m MetadataConfig) Any() bool {
	return m.Author || m.ISBN || m.Publisher || m.DateLastRead || m.Language || m.Description
}

type ExportConfig struct {
	ExportPath string         `json:"export_path"`
	Metadata   MetadataConfig `json:"metadata"`
	DateFormat DateFormat     `json:"date_format"`
}

// DefaultExportConfig returns the configuration used until the user saves one.
// No metadata is included by default.
func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		ExportPath: DefaultExportPath(),
		DateFormat: DateFormatDDMonthYYYY,
	}
}

// DefaultExportPath is ~/Documents/Kobo Highlights, or a relative directory
// when the home directory cannot be determined.
func DefaultExportPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "Kobo Highlights"
	}
	return filepath.Join(home, "Documents", "Kobo Highlights")
}

// Validate checks the fields that cannot be defaulted.
func (c ExportConfig) Validate() error {
	if c.ExportPath == "" {
		return fmt.Errorf("export path is required")
	}
	if _, err := ParseDateFormat(string(c.DateFormat)); err != nil {
		return err
	}
	return nil
}
