package duckdb

import (
	"context"
	"fmt"
	"time"
)

// SampleRecord describes one screened sample file.
type SampleRecord struct {
	Sample      string
	Path        string
	Format      string
	FileSize    int64
	FileModTime time.Time
	Watchlist   string
	Variants    int64
	Hits        int64
	ScreenedAt  time.Time
}

// RecordSample stores the screening summary of one sample file.
func (s *Store) RecordSample(ctx context.Context, r SampleRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO samples
		(sample, path, format, file_size, file_modtime, watchlist, variants, hits, screened_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Sample, r.Path, r.Format, r.FileSize, r.FileModTime.UTC(),
		r.Watchlist, r.Variants, r.Hits, r.ScreenedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert sample %s: %w", r.Sample, err)
	}
	return nil
}

// Samples returns every recorded sample, most recently screened first.
func (s *Store) Samples(ctx context.Context) ([]SampleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		sample, path, format, file_size, file_modtime, watchlist, variants, hits, screened_at
		FROM samples
		ORDER BY screened_at DESC, sample`)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var records []SampleRecord
	for rows.Next() {
		var r SampleRecord
		if err := rows.Scan(
			&r.Sample, &r.Path, &r.Format, &r.FileSize, &r.FileModTime,
			&r.Watchlist, &r.Variants, &r.Hits, &r.ScreenedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return records, nil
}
