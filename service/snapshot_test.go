package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashish23092/annual-report-analytics/dto"
)

func TestSnapshotLoadMissingFile(t *testing.T) {
	store := NewSnapshotStore(filepath.Join(t.TempDir(), "processed_data.json"), nil)

	_, err := store.Load()

	assert.ErrorIs(t, err, dto.ErrNoDataset)
}

func TestSnapshotJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uploads", "processed_data.json")
	store := NewSnapshotStore(path, nil)

	snap := dto.Snapshot{
		BatchID:   "3f1c7a52-9d1e-4c63-a3a8-2f3c6f6f2b10",
		CreatedAt: time.Date(2024, 7, 1, 10, 30, 0, 0, time.UTC),
		Files:     []dto.SnapshotFile{{Filename: "jkh_2022.pdf", Year: 2022, Source: dto.SourceExtracted}},
		Table: NormalizeDataset(sampleRecords(), []dto.ShareholderRecord{
			{Year: 2022, Name: "Melstacorp PLC", OwnershipPercentage: 17.5},
		}),
	}

	require.NoError(t, store.Save(snap))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, snap.BatchID, loaded.BatchID)
	assert.True(t, snap.CreatedAt.Equal(loaded.CreatedAt))
	assert.Equal(t, snap.Files, loaded.Files)
	assert.Equal(t, snap.Table, loaded.Table)
}

func TestSnapshotSaveReplacesPrevious(t *testing.T) {
	store := NewSnapshotStore(filepath.Join(t.TempDir(), "processed_data.json"), nil)

	require.NoError(t, store.Save(dto.Snapshot{BatchID: "first", Table: Normalize(sampleRecords())}))
	require.NoError(t, store.Save(dto.Snapshot{BatchID: "second", Table: Normalize(sampleRecords()[:1])}))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "second", loaded.BatchID)
	assert.Len(t, loaded.Table.Rows, 1)

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestSnapshotCSVRoundTrip(t *testing.T) {
	store := NewSnapshotStore(filepath.Join(t.TempDir(), "processed_data.csv"), nil)
	table := Normalize(sampleRecords())

	require.NoError(t, store.Save(dto.Snapshot{Table: table}))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, table.Rows, loaded.Table.Rows)
}

func TestSnapshotCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewSnapshotStore(path, nil).Load()

	assert.ErrorIs(t, err, dto.ErrIOFailure)
}

func TestReadCSVSkipsRowsWithoutYear(t *testing.T) {
	input := "Year,Revenue,Net Profit\n2021,150,12\n,160,13\nn/a,1,1\n2022,,14\n"

	records, skipped, err := ReadCSV(strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, records, 2)
	assert.Equal(t, 150.0, records[0].Revenue.Float64)
	assert.False(t, records[1].Revenue.Valid)
	assert.Equal(t, 14.0, records[1].NetProfit.Float64)
}

func TestReadCSVWithoutSourceColumnIsEstimated(t *testing.T) {
	records, skipped, err := ReadCSV(strings.NewReader("Year,Revenue\n2022,5\n"))

	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, records, 1)
	assert.Equal(t, dto.SourceSample, records[0].Source)

	insights := newTestInsightService().Insights(Normalize(records))
	prov, ok := findInsight(insights, InsightProvenance)
	require.True(t, ok)
	assert.Contains(t, prov.Markdown, "Figures for 2022 are estimated")
}

func TestReadCSVEmptyInput(t *testing.T) {
	records, skipped, err := ReadCSV(strings.NewReader(""))

	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Empty(t, records)
}
