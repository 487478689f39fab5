package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/jts/ncov-watch/internal/match"
)

// Hit is one stored watchlist match.
type Hit struct {
	Sample      string
	Mutation    string
	Chrom       string
	Pos         int64
	Ref         string
	Alt         string
	VariantType string
}

// WriteHits batch-inserts the matches of one sample using the Appender API.
// Repeated matches are stored repeatedly.
func (s *Store) WriteHits(ctx context.Context, sample string, matches []match.Match) error {
	if len(matches) == 0 {
		return nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "hits")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, m := range matches {
		v := m.Sample
		if err := appender.AppendRow(
			sample, m.Name(), v.Chrom, v.Pos, v.Ref, v.Alt, v.Type(),
		); err != nil {
			return fmt.Errorf("append hit: %w", err)
		}
	}

	return appender.Flush()
}

// HitsByMutation returns every stored hit for a watchlist mutation name.
func (s *Store) HitsByMutation(ctx context.Context, mutation string) ([]Hit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		sample, mutation, chrom, pos, ref, alt, variant_type
		FROM hits
		WHERE mutation=?
		ORDER BY sample, chrom, pos`, mutation)
	if err != nil {
		return nil, fmt.Errorf("query by mutation: %w", err)
	}
	defer rows.Close()

	return scanHits(rows)
}

// HitsBySample returns every stored hit for a sample.
func (s *Store) HitsBySample(ctx context.Context, sample string) ([]Hit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		sample, mutation, chrom, pos, ref, alt, variant_type
		FROM hits
		WHERE sample=?
		ORDER BY chrom, pos`, sample)
	if err != nil {
		return nil, fmt.Errorf("query by sample: %w", err)
	}
	defer rows.Close()

	return scanHits(rows)
}

// AllHits returns every stored hit.
func (s *Store) AllHits(ctx context.Context) ([]Hit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		sample, mutation, chrom, pos, ref, alt, variant_type
		FROM hits
		ORDER BY sample, chrom, pos`)
	if err != nil {
		return nil, fmt.Errorf("query hits: %w", err)
	}
	defer rows.Close()

	return scanHits(rows)
}

// ClearHits removes all stored hits and samples.
func (s *Store) ClearHits(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM hits"); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM samples")
	return err
}

// scanHits scans rows into Hit slices.
func scanHits(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]Hit, error) {
	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(
			&h.Sample, &h.Mutation, &h.Chrom, &h.Pos, &h.Ref, &h.Alt, &h.VariantType,
		); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hits: %w", err)
	}
	return hits, nil
}
