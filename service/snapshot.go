package service

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Aashish23092/annual-report-analytics/dto"
)

// SnapshotStore persists the latest processed dataset as one flat file. The
// file is replaced wholesale on every save; concurrent writers race and the
// last rename wins.
type SnapshotStore struct {
	path string
	log  *zap.Logger
}

func NewSnapshotStore(path string, log *zap.Logger) *SnapshotStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &SnapshotStore{path: path, log: log}
}

// Path returns the snapshot file location.
func (s *SnapshotStore) Path() string {
	return s.path
}

func (s *SnapshotStore) isCSV() bool {
	return strings.EqualFold(filepath.Ext(s.path), ".csv")
}

// Save writes snap through a temporary file and renames it into place.
func (s *SnapshotStore) Save(snap dto.Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create snapshot dir: %w", dto.ErrIOFailure, err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("%w: create temp snapshot: %w", dto.ErrIOFailure, err)
	}
	defer os.Remove(tmp.Name())

	if s.isCSV() {
		err = WriteCSV(tmp, snap.Table)
	} else {
		enc := json.NewEncoder(tmp)
		enc.SetIndent("", "  ")
		err = enc.Encode(snap)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("%w: write snapshot: %w", dto.ErrIOFailure, err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: replace snapshot: %w", dto.ErrIOFailure, err)
	}

	s.log.Info("snapshot saved",
		zap.String("path", s.path),
		zap.String("batch_id", snap.BatchID),
		zap.Int("rows", len(snap.Table.Rows)))
	return nil
}

// Load reads the snapshot. A missing file yields ErrNoDataset.
func (s *SnapshotStore) Load() (dto.Snapshot, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return dto.Snapshot{}, dto.ErrNoDataset
		}
		return dto.Snapshot{}, fmt.Errorf("%w: open snapshot: %w", dto.ErrIOFailure, err)
	}
	defer f.Close()

	if s.isCSV() {
		records, skipped, err := ReadCSV(f)
		if err != nil {
			return dto.Snapshot{}, fmt.Errorf("%w: read snapshot: %w", dto.ErrIOFailure, err)
		}
		if skipped > 0 {
			s.log.Debug("skipped snapshot rows without a year", zap.Int("count", skipped))
		}
		return dto.Snapshot{Table: Normalize(records)}, nil
	}

	var snap dto.Snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return dto.Snapshot{}, fmt.Errorf("%w: decode snapshot: %w", dto.ErrIOFailure, err)
	}
	return snap, nil
}

// ReadCSV parses a header row plus data rows into records.
func ReadCSV(r io.Reader) ([]dto.FinancialRecord, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, nil
		}
		return nil, 0, err
	}

	var raw []dto.RawRow
	for {
		line, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		row := make(dto.RawRow, len(header))
		for i, col := range header {
			if i < len(line) {
				row[col] = line[i]
			}
		}
		raw = append(raw, row)
	}

	records, skipped := ParseRawRows(raw)
	return records, skipped, nil
}
