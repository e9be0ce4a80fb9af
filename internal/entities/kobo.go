package entities

import "path/filepath"

const (
	// KoboDirName is the hidden directory on the device root holding the reader's state.
	KoboDirName = ".kobo"
	// KoboDatabaseName is the content database inside KoboDirName.
	KoboDatabaseName = "KoboReader.sqlite"
	// KoboVersionName holds the serial number and firmware version.
	KoboVersionName = "version"
)

// Device is a mounted Kobo volume.
type Device struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	Valid        bool   `json:"is_valid"`
	SerialNumber string `json:"serial_number,omitempty"`
}

// DatabasePath returns the absolute path of the device's content database.
func (d Device) DatabasePath() string {
	return filepath.Join(d.Path, KoboDirName, KoboDatabaseName)
}

// ResolvePath joins a device-relative path (forward slashes) onto the mount root.
func (d Device) ResolvePath(rel string) string {
	if rel == "" {
		return ""
	}
	return filepath.Join(d.Path, filepath.FromSlash(rel))
}

// Identifier returns the serial number when known, otherwise the mount path.
func (d Device) Identifier() string {
	if d.SerialNumber != "" {
		return d.SerialNumber
	}
	return d.Path
}

type Book struct {
	ContentID    string      `json:"content_id"`
	Title        string      `json:"title"`
	Author       string      `json:"author"`
	ISBN         string      `json:"isbn,omitempty"`
	Publisher    string      `json:"publisher,omitempty"`
	Language     string      `json:"language,omitempty"`
	DateLastRead string      `json:"date_last_read,omitempty"`
	Description  string      `json:"description,omitempty"`
	FilePath     string      `json:"file_path,omitempty"` // relative to the device root
	CoverPath    string      `json:"cover_path,omitempty"`
	Highlights   []Highlight `json:"highlights"`
}

// HighlightCount is a convenience for summaries.
func (b Book) HighlightCount() int {
	return len(b.Highlights)
}

type Highlight struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	Annotation      string   `json:"annotation,omitempty"`
	ChapterTitle    string   `json:"chapter_title,omitempty"`
	ChapterProgress *float64 `json:"chapter_progress,omitempty"` // 0.0 - 1.0
	ContainerPath   string   `json:"container_path,omitempty"`
	DateCreated     string   `json:"date_created"`
	Color           string   `json:"color,omitempty"`
}

// CountHighlights sums highlights across books.
func CountHighlights(books []Book) int {
	total := 0
	for _, b := range books {
		total += len(b.Highlights)
	}
	return total
}
