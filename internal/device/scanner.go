// Package device locates mounted Kobo e-readers.
//
// A volume is a Kobo when its root holds .kobo/KoboReader.sqlite. Scanning is
// read-only and never returns an error: anything that cannot be listed or
// opened is treated as "no device here", so callers can poll Scan freely.
package device

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/kobo"
	"github.com/mrlokans/kobo-highlights/internal/log"
)

// Scanner enumerates mount roots looking for a Kobo volume.
type Scanner struct {
	roots    []string
	validate func(dbPath string) error
}

// NewScanner creates a scanner over the given roots, or the platform's
// default mount roots when none are given.
func NewScanner(roots []string) *Scanner {
	if len(roots) == 0 {
		roots = DefaultMountRoots()
	}
	return &Scanner{
		roots:    roots,
		validate: kobo.ValidateDatabase,
	}
}

// DefaultMountRoots returns where removable volumes are mounted on this OS.
func DefaultMountRoots() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/Volumes"}
	case "windows":
		roots := make([]string, 0, 24)
		for letter := 'D'; letter <= 'Z'; letter++ {
			roots = append(roots, string(letter)+`:\`)
		}
		return roots
	default:
		var roots []string
		if user := os.Getenv("USER"); user != "" {
			roots = append(roots, filepath.Join("/media", user), filepath.Join("/run/media", user))
		}
		return append(roots, "/media", "/mnt")
	}
}

// Roots returns the roots this scanner enumerates.
func (s *Scanner) Roots() []string {
	return s.roots
}

// Scan returns the first mounted volume with a readable content database,
// or nil when there is none.
func (s *Scanner) Scan() *entities.Device {
	for _, candidate := range s.candidates() {
		if dev, ok := s.inspect(candidate); ok && dev.Valid {
			return &dev
		}
	}
	return nil
}

// ScanAll returns every volume that looks like a Kobo, including those whose
// database is missing or unreadable (Valid is false for those).
func (s *Scanner) ScanAll() []entities.Device {
	var devices []entities.Device
	seen := make(map[string]bool)
	for _, candidate := range s.candidates() {
		dev, ok := s.inspect(candidate)
		if !ok || seen[dev.Path] {
			continue
		}
		seen[dev.Path] = true
		devices = append(devices, dev)
	}
	return devices
}

// Inspect checks a single path that is expected to be a device root.
// ok is false when the path has no .kobo directory at all.
func (s *Scanner) Inspect(root string) (entities.Device, bool) {
	return s.inspect(root)
}

// candidates lists each root and its immediate subdirectories.
func (s *Scanner) candidates() []string {
	var out []string
	for _, root := range s.roots {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			continue
		}
		out = append(out, root)

		entries, err := os.ReadDir(root)
		if err != nil {
			log.Debug("cannot list mount root", zap.String("root", root), zap.Error(err))
			continue
		}
		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			path := filepath.Join(root, entry.Name())
			// Mounted volumes may show up as symlinks (e.g. /Volumes/Macintosh HD)
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				out = append(out, path)
			}
		}
	}
	return out
}

func (s *Scanner) inspect(root string) (entities.Device, bool) {
	koboDir := filepath.Join(root, entities.KoboDirName)
	info, err := os.Stat(koboDir)
	if err != nil || !info.IsDir() {
		return entities.Device{}, false
	}

	dev := entities.Device{
		Name:         deviceName(root),
		Path:         root,
		SerialNumber: readSerialNumber(koboDir),
	}

	if err := s.validate(dev.DatabasePath()); err != nil {
		log.Debug("kobo volume has no readable database",
			zap.String("path", root), zap.Error(err))
		return dev, true
	}
	dev.Valid = true
	return dev, true
}

func deviceName(root string) string {
	name := filepath.Base(filepath.Clean(root))
	if name == "." || name == string(filepath.Separator) || strings.HasSuffix(name, ":") || name == "" {
		return "Kobo eReader"
	}
	return name
}

// readSerialNumber returns the first comma-separated field of .kobo/version,
// which is the device serial.
func readSerialNumber(koboDir string) string {
	data, err := os.ReadFile(filepath.Join(koboDir, entities.KoboVersionName))
	if err != nil {
		return ""
	}
	serial, _, _ := strings.Cut(strings.TrimSpace(string(data)), ",")
	return strings.TrimSpace(serial)
}
