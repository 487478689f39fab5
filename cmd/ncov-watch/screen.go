package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jts/ncov-watch/internal/duckdb"
	"github.com/jts/ncov-watch/internal/fileset"
	"github.com/jts/ncov-watch/internal/metrics"
	"github.com/jts/ncov-watch/internal/output"
	"github.com/jts/ncov-watch/internal/screen"
	"github.com/jts/ncov-watch/internal/watchlist"
)

func (a *app) newScreenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "screen [flags] [sample-file...]",
		Short: "Report samples carrying watchlist mutations",
		Long: `Screen sample files against a watchlist and report every hit.

Sample files are taken from the arguments, else found under --directory,
else read one path per line from standard input.

Output styles:
  mutation  one row per hit: sample, mutation, contig, position, ref, alt
  summary   one row per sample with hits: sample, hit count, mutation names`,
		Example: `  ncov-watch screen -m b.1.1.7 -d analysis/
  ncov-watch screen -m my_watchlist.vcf -s summary sample1.pass.vcf sample2.variants.tsv
  find . -name '*variants.tsv' | ncov-watch screen -m p.1
  ncov-watch screen -m b.1.351 -d s3://bucket/run42/ --db hits.duckdb`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			a.bindFlags(cmd, map[string]string{
				"watchlist":    "mutation-set",
				"output-style": "output-style",
				"threads":      "threads",
				"db":           "db",
				"metrics-file": "metrics-file",
			})
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			directory, _ := cmd.Flags().GetString("directory")
			outputFile, _ := cmd.Flags().GetString("output")
			return a.runScreen(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args, directory, outputFile)
		},
	}

	f := cmd.Flags()
	f.StringP("mutation-set", "m", "", "Preinstalled watchlist name or VCF file of watched mutations")
	f.StringP("directory", "d", "", "Root directory (or s3:// prefix) holding sample files")
	f.StringP("output-style", "s", output.StyleMutation.String(), "Output style: "+strings.Join(output.Styles, ", "))
	f.StringP("output", "o", "", "Output file (default: stdout)")
	f.Int("threads", 1, "Files screened concurrently (0 = one per CPU)")
	f.String("db", "", "DuckDB file recording samples and hits")
	f.String("metrics-file", "", "Write run metrics in Prometheus textfile format")
	f.SortFlags = false

	return cmd
}

func (a *app) runScreen(ctx context.Context, stdin io.Reader, stdout io.Writer, args []string, directory, outputFile string) error {
	style, err := output.ParseStyle(a.v.GetString("output-style"))
	if err != nil {
		return err
	}

	name := a.v.GetString("watchlist")
	if name == "" {
		return fmt.Errorf("--mutation-set is required (preinstalled: %s)", strings.Join(watchlist.Preinstalled(), ", "))
	}

	opener := fileset.NewOpener(a.s3Config())

	wl, err := watchlist.Resolve(ctx, name, opener)
	if err != nil {
		return err
	}
	a.logger.Info("loaded watchlist", zap.String("watchlist", wl.Name()), zap.Int("entries", wl.Len()))

	// Rows are staged so an aborted run writes nothing.
	var buf bytes.Buffer
	writer, err := output.NewWriter(style, &buf)
	if err != nil {
		return err
	}

	sc := screen.NewScreener(wl, writer, opener)
	sc.SetLogger(a.logger)
	sc.SetWorkers(a.v.GetInt("threads"))

	if dbPath := a.v.GetString("db"); dbPath != "" {
		store, err := duckdb.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		sc.SetStore(store)
		a.logger.Debug("recording hits", zap.String("db", dbPath))
	}

	var m *metrics.Metrics
	metricsFile := a.v.GetString("metrics-file")
	if metricsFile != "" {
		m = metrics.New()
		sc.SetMetrics(m)
	}

	sum, err := sc.Run(ctx, inputPaths(ctx, opener, stdin, args, directory))
	if err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	if err := writeOutput(stdout, outputFile, buf.Bytes()); err != nil {
		return err
	}

	if m != nil {
		if err := m.WriteTextfile(metricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	if len(sum.Failed) > 0 {
		errs := make([]error, len(sum.Failed))
		for i, fe := range sum.Failed {
			errs[i] = fe
		}
		return fmt.Errorf("%d sample file(s) could not be parsed: %w", len(sum.Failed), errors.Join(errs...))
	}
	return nil
}

// inputPaths picks the sample file source: arguments first, then the
// directory, then standard input.
func inputPaths(ctx context.Context, opener *fileset.Opener, stdin io.Reader, args []string, directory string) iter.Seq2[string, error] {
	switch {
	case len(args) > 0:
		return fileset.Slice(args)
	case directory != "":
		return opener.Walk(ctx, directory)
	default:
		return fileset.Lines(stdin)
	}
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func (a *app) s3Config() fileset.S3Config {
	return fileset.S3Config{
		Region:    a.v.GetString("s3.region"),
		Endpoint:  a.v.GetString("s3.endpoint"),
		PathStyle: a.v.GetBool("s3.path-style"),
	}
}
