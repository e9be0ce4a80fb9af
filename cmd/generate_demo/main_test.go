package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/kobo-highlights/internal/covers"
	"github.com/mrlokans/kobo-highlights/internal/device"
	"github.com/mrlokans/kobo-highlights/internal/exporters"
	"github.com/mrlokans/kobo-highlights/internal/importers"
)

func TestGenerate_ImportsCleanly(t *testing.T) {
	mount := t.TempDir()
	root := filepath.Join(mount, "KOBOeReader")

	result, err := generate(root, "N905000000099", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 5, result.Books)
	assert.Equal(t, 12, result.Highlights)

	extractor, err := covers.NewExtractor(t.TempDir())
	require.NoError(t, err)
	orchestrator := importers.NewOrchestrator(device.NewScanner([]string{mount}), extractor, exporters.NewMarkdownExporter())

	dev := orchestrator.Scan()
	require.NotNil(t, dev)
	assert.Equal(t, "N905000000099", dev.SerialNumber)

	imported, err := orchestrator.Import(context.Background(), dev)
	require.NoError(t, err)
	assert.Empty(t, imported.Skipped)
	assert.Equal(t, 12, imported.HighlightsCount)
	assert.Equal(t, 5, imported.CoversExtracted)

	require.Len(t, imported.Books, 5)
	meditations := imported.Books[2]
	assert.Equal(t, "Meditations", meditations.Title)
	assert.Equal(t, "Books/Meditations.epub", meditations.FilePath)
	require.Len(t, meditations.Highlights, 5)
	assert.Equal(t, "Book Two", meditations.Highlights[0].ChapterTitle)
	assert.Equal(t, "Book Ten", meditations.Highlights[4].ChapterTitle)

	dorian := imported.Books[4]
	assert.Equal(t, "The Picture of Dorian Gray", dorian.Title)
	assert.Empty(t, dorian.FilePath)
	assert.NotEmpty(t, dorian.CoverPath)
}

func TestGenerate_Regenerates(t *testing.T) {
	root := t.TempDir()
	now := time.Now()

	_, err := generate(root, defaultDemoSerial, now)
	require.NoError(t, err)

	result, err := generate(root, defaultDemoSerial, now)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Books)
}
