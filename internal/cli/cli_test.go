package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/importers"
	"github.com/mrlokans/kobo-highlights/internal/kobo/kobotest"
)

type testEnv struct {
	mount     string
	deviceDir string
	exportDir string
	coversDir string
}

// setupEnv points the configuration at temporary state through KOBO_*
// variables, the way a user would.
func setupEnv(t *testing.T, withDevice bool) testEnv {
	t.Helper()

	state := t.TempDir()
	env := testEnv{
		mount:     t.TempDir(),
		exportDir: filepath.Join(state, "export"),
		coversDir: filepath.Join(state, "covers"),
	}
	env.deviceDir = filepath.Join(env.mount, "KOBOeReader")

	t.Setenv("KOBO_DATABASE_PATH", filepath.Join(state, "app.db"))
	t.Setenv("KOBO_DEVICE_MOUNT_ROOTS", env.mount)
	t.Setenv("KOBO_COVERS_CACHE_DIR", env.coversDir)
	t.Setenv("KOBO_EXPORT_DIR", env.exportDir)
	t.Setenv("KOBO_LOG_LEVEL", "error")

	if withDevice {
		fixture, err := kobotest.CreateDevice(env.deviceDir, "N905000000001")
		require.NoError(t, err)
		require.NoError(t, kobotest.SeedSample(fixture))
		require.NoError(t, fixture.Close())
	}
	return env
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand("1.2.3", "abc123")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")

	require.NoError(t, err)
	assert.Equal(t, "kobo-highlights 1.2.3 (commit abc123)\n", out)
}

func TestScanCommand(t *testing.T) {
	env := setupEnv(t, true)

	out, err := run(t, "scan")
	require.NoError(t, err)
	assert.Contains(t, out, env.deviceDir)
	assert.Contains(t, out, "valid")
	assert.Contains(t, out, "serial N905000000001")

	out, err = run(t, "scan", "--all")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, env.deviceDir))
}

func TestScanCommand_NoDevice(t *testing.T) {
	setupEnv(t, false)

	_, err := run(t, "scan")
	assert.ErrorIs(t, err, importers.ErrDeviceNotFound)

	out, err := run(t, "scan", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "No Kobo volumes found")
}

func TestImportCommand(t *testing.T) {
	setupEnv(t, true)

	out, err := run(t, "import")
	require.NoError(t, err)
	assert.Contains(t, out, "Atomic Habits - James Clear (3 highlights)")
	assert.Contains(t, out, "Sapiens - Yuval Noah Harari (0 highlights)")
	assert.Contains(t, out, "Imported 2 books, 3 highlights, 0 covers")
}

func TestImportCommand_JSON(t *testing.T) {
	env := setupEnv(t, true)

	out, err := run(t, "import", "--json", "--device", env.deviceDir)
	require.NoError(t, err)

	var result importers.ImportResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Len(t, result.Books, 2)
	assert.Equal(t, env.deviceDir, result.Device.Path)
}

func TestImportCommand_NoDevice(t *testing.T) {
	setupEnv(t, false)

	_, err := run(t, "import")
	assert.ErrorIs(t, err, importers.ErrDeviceNotFound)
}

func TestExportCommand(t *testing.T) {
	env := setupEnv(t, true)

	out, err := run(t, "export")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 books, 3 highlights")
	assert.FileExists(t, filepath.Join(env.exportDir, "Atomic Habits - James Clear.md"))
	assert.FileExists(t, filepath.Join(env.exportDir, "Sapiens - Yuval Noah Harari.md"))
}

func TestExportCommand_Flags(t *testing.T) {
	setupEnv(t, true)
	output := t.TempDir()

	out, err := run(t, "export",
		"--output", output,
		"--book", kobotest.AtomicHabitsID,
		"--author",
		"--date-format", "iso8601")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 books, 3 highlights")

	data, err := os.ReadFile(filepath.Join(output, "Atomic Habits - James Clear.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "**Author:** James Clear")
	assert.NoFileExists(t, filepath.Join(output, "Sapiens - Yuval Noah Harari.md"))
}

func TestExportCommand_InvalidDateFormat(t *testing.T) {
	setupEnv(t, true)

	_, err := run(t, "export", "--date-format", "yyyy")
	assert.Error(t, err)
}

func TestExportFlags_Apply(t *testing.T) {
	saved := entities.ExportConfig{
		ExportPath: "/saved",
		Metadata:   entities.MetadataConfig{ISBN: true, Author: true},
		DateFormat: entities.DateFormatDDMMYYYY,
	}

	flags := &exportFlags{}
	set := pflag.NewFlagSet("export", pflag.ContinueOnError)
	set.StringVar(&flags.output, "output", "", "")
	set.StringVar(&flags.dateFormat, "date-format", "", "")
	set.BoolVar(&flags.metadata.Author, "author", false, "")
	set.BoolVar(&flags.metadata.ISBN, "isbn", false, "")
	set.BoolVar(&flags.metadata.Publisher, "publisher", false, "")
	set.BoolVar(&flags.metadata.DateLastRead, "date-last-read", false, "")
	set.BoolVar(&flags.metadata.Language, "language", false, "")
	set.BoolVar(&flags.metadata.Description, "description", false, "")
	require.NoError(t, set.Parse([]string{"--author=false", "--language"}))

	cfg, err := flags.apply(set, saved)
	require.NoError(t, err)
	assert.Equal(t, "/saved", cfg.ExportPath)
	assert.Equal(t, entities.DateFormatDDMMYYYY, cfg.DateFormat)
	assert.False(t, cfg.Metadata.Author)
	assert.True(t, cfg.Metadata.ISBN)
	assert.True(t, cfg.Metadata.Language)
}

func TestCoversClearCommand(t *testing.T) {
	env := setupEnv(t, false)
	require.NoError(t, os.MkdirAll(env.coversDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(env.coversDir, "cover_abc.jpg"), []byte("x"), 0644))

	out, err := run(t, "covers", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 cached covers")
	assert.NoFileExists(t, filepath.Join(env.coversDir, "cover_abc.jpg"))
}
