package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortByPageUsesNumericPageOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"report_10_Im1.png", "report_2_Im2.png", "report_2_Im1.png", "report_1_Im1.jpg", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	files, err := os.ReadDir(dir)
	require.NoError(t, err)

	sortByPage(files, imageBase)

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name()
	}
	assert.Equal(t, []string{
		"report_1_Im1.jpg", "report_2_Im1.png", "report_2_Im2.png", "report_10_Im1.png", "notes.txt",
	}, names)
}

func TestImagePage(t *testing.T) {
	assert.Equal(t, 7, imagePage("report_07_Im3.png", imageBase))
	assert.Equal(t, 12, imagePage("report_12_thumb.jpg", imageBase))
	assert.Greater(t, imagePage("report_cover.png", imageBase), 1000)
	assert.Greater(t, imagePage("other_1_Im1.png", imageBase), 1000)
}
