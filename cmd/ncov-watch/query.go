package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jts/ncov-watch/internal/duckdb"
)

func (a *app) newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print hits recorded by screen --db",
		Example: `  ncov-watch query --db hits.duckdb --mutation S:N501Y
  ncov-watch query --db hits.duckdb --sample sample1
  ncov-watch query --db hits.duckdb --samples`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			a.bindFlags(cmd, map[string]string{"db": "db"})
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			mutation, _ := cmd.Flags().GetString("mutation")
			sample, _ := cmd.Flags().GetString("sample")
			listSamples, _ := cmd.Flags().GetBool("samples")
			clearAll, _ := cmd.Flags().GetBool("clear")

			dbPath := a.v.GetString("db")
			if dbPath == "" {
				return errors.New("--db is required")
			}

			store, err := duckdb.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			switch {
			case clearAll:
				if err := store.ClearHits(ctx); err != nil {
					return fmt.Errorf("clear %s: %w", dbPath, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Cleared hits in %s\n", dbPath)
				return nil
			case listSamples:
				records, err := store.Samples(ctx)
				if err != nil {
					return err
				}
				return writeSampleRecords(out, records)
			}

			hits, err := queryHits(ctx, store, mutation, sample)
			if err != nil {
				return err
			}
			return writeHits(out, hits)
		},
	}

	f := cmd.Flags()
	f.String("db", "", "DuckDB file written by screen --db")
	f.String("mutation", "", "Only hits for this watchlist mutation name")
	f.String("sample", "", "Only hits for this sample")
	f.Bool("samples", false, "List screened samples instead of hits")
	f.Bool("clear", false, "Remove all recorded hits and samples")

	return cmd
}

func queryHits(ctx context.Context, store *duckdb.Store, mutation, sample string) ([]duckdb.Hit, error) {
	switch {
	case sample != "":
		hits, err := store.HitsBySample(ctx, sample)
		if err != nil || mutation == "" {
			return hits, err
		}
		var filtered []duckdb.Hit
		for _, h := range hits {
			if h.Mutation == mutation {
				filtered = append(filtered, h)
			}
		}
		return filtered, nil
	case mutation != "":
		return store.HitsByMutation(ctx, mutation)
	default:
		return store.AllHits(ctx)
	}
}

func writeHits(w io.Writer, hits []duckdb.Hit) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("sample\tmutation\tcontig\tposition\tref\talt\ttype\n")
	for _, h := range hits {
		bw.WriteString(strings.Join([]string{
			h.Sample,
			h.Mutation,
			h.Chrom,
			strconv.FormatInt(h.Pos, 10),
			h.Ref,
			h.Alt,
			h.VariantType,
		}, "\t"))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func writeSampleRecords(w io.Writer, records []duckdb.SampleRecord) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("sample\tpath\tformat\twatchlist\tvariants\thits\tscreened_at\n")
	for _, r := range records {
		bw.WriteString(strings.Join([]string{
			r.Sample,
			r.Path,
			r.Format,
			r.Watchlist,
			strconv.FormatInt(r.Variants, 10),
			strconv.FormatInt(r.Hits, 10),
			r.ScreenedAt.UTC().Format(time.RFC3339),
		}, "\t"))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
