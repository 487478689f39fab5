// Package screen runs sample files through parsing, watchlist matching and
// report output.
package screen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/jts/ncov-watch/internal/duckdb"
	"github.com/jts/ncov-watch/internal/fileset"
	"github.com/jts/ncov-watch/internal/ivar"
	"github.com/jts/ncov-watch/internal/match"
	"github.com/jts/ncov-watch/internal/metrics"
	"github.com/jts/ncov-watch/internal/output"
	"github.com/jts/ncov-watch/internal/vcf"
	"github.com/jts/ncov-watch/internal/watchlist"
)

// Opener opens and stats sample files.
type Opener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Stat(ctx context.Context, path string) (fileset.FileInfo, error)
}

// HitStore persists screening results.
type HitStore interface {
	WriteHits(ctx context.Context, sample string, matches []match.Match) error
	RecordSample(ctx context.Context, r duckdb.SampleRecord) error
}

// FileResult is the outcome of screening one sample file.
type FileResult struct {
	Seq      int
	Path     string
	Sample   string
	Format   fileset.Format
	Matches  []match.Match
	Variants int

	// Unrecognized is set for iVar files that could not be read as iVar
	// output. They count as files without variants.
	Unrecognized error
	// Failed is set when the file was recognized but could not be parsed.
	// The file is skipped and the run continues.
	Failed error
	// Err aborts the run.
	Err error
}

// FileError records a sample file that was skipped.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Summary reports the totals of a run.
type Summary struct {
	Files           int
	Variants        int
	Hits            int
	SamplesWithHits int
	Unrecognized    int
	Failed          []FileError
}

// Screener screens sample files against a watchlist.
type Screener struct {
	wl      *watchlist.Watchlist
	writer  output.Writer
	opener  Opener
	store   HitStore
	metrics *metrics.Metrics
	workers int
	logger  *zap.Logger
	now     func() time.Time
}

// NewScreener creates a screener writing matches to writer.
func NewScreener(wl *watchlist.Watchlist, writer output.Writer, opener Opener) *Screener {
	return &Screener{
		wl:      wl,
		writer:  writer,
		opener:  opener,
		workers: 1,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
}

// SetWorkers sets the number of files screened concurrently.
// Values below 1 mean one worker per CPU.
func (s *Screener) SetWorkers(n int) {
	s.workers = n
}

// SetLogger sets the logger for warning and info messages.
func (s *Screener) SetLogger(l *zap.Logger) {
	s.logger = l
}

// SetStore enables recording of samples and hits.
func (s *Screener) SetStore(store HitStore) {
	s.store = store
}

// SetMetrics enables run metrics.
func (s *Screener) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
	m.WatchlistEntries.Set(float64(s.wl.Len()))
}

// ScreenFile parses one sample file and matches it against the watchlist.
func (s *Screener) ScreenFile(ctx context.Context, path string) FileResult {
	format := fileset.DetectFormat(path)
	r := FileResult{
		Path:   path,
		Sample: fileset.SampleName(path),
		Format: format,
	}

	rc, err := s.opener.Open(ctx, path)
	if err != nil {
		if format == fileset.FormatIvar {
			r.Unrecognized = fmt.Errorf("%w: %w", ivar.ErrUnrecognized, err)
		} else {
			r.Err = fmt.Errorf("open %s: %w", path, err)
		}
		return r
	}
	defer rc.Close()

	var p vcf.VariantParser
	switch format {
	case fileset.FormatIvar:
		ip, err := ivar.NewParserFromReader(rc)
		switch {
		case errors.Is(err, ivar.ErrUnrecognized):
			r.Unrecognized = err
			return r
		case err != nil:
			r.Failed = err
			return r
		}
		p = ip
	default:
		vp, err := vcf.NewParserFromReader(rc)
		if err != nil {
			r.Err = fmt.Errorf("%s: %w", path, err)
			return r
		}
		p = vp
	}
	defer p.Close()

	matches, n, err := match.Scan(p, s.wl)
	r.Variants = n
	if err != nil {
		if format == fileset.FormatIvar {
			r.Failed = err
		} else {
			r.Err = fmt.Errorf("%s: %w", path, err)
		}
		return r
	}
	r.Matches = matches
	return r
}

// Run screens every path in order. A sample's rows are written as one block
// and samples without hits are not written. The header is written first.
// The writer is not flushed; callers flush once Run succeeds.
func (s *Screener) Run(ctx context.Context, paths iter.Seq2[string, error]) (Summary, error) {
	var sum Summary

	if err := s.writer.WriteHeader(); err != nil {
		return sum, fmt.Errorf("write header: %w", err)
	}

	handle := func(r FileResult) error {
		return s.emit(ctx, r, &sum)
	}

	var err error
	if s.workers == 1 {
		err = s.runSequential(ctx, paths, handle)
	} else {
		err = s.runParallel(ctx, paths, handle)
	}
	if err != nil {
		return sum, err
	}

	if s.metrics != nil {
		s.metrics.MarkCompleted(s.now())
	}

	s.logger.Info("screening complete",
		zap.Int("files", sum.Files),
		zap.Int("variants", sum.Variants),
		zap.Int("hits", sum.Hits),
		zap.Int("samples_with_hits", sum.SamplesWithHits),
		zap.Int("unrecognized", sum.Unrecognized),
		zap.Int("failed", len(sum.Failed)))

	return sum, nil
}

func (s *Screener) runSequential(ctx context.Context, paths iter.Seq2[string, error], handle func(FileResult) error) error {
	seq := 0
	for path, err := range paths {
		if err != nil {
			return fmt.Errorf("list sample files: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		r := s.ScreenFile(ctx, path)
		r.Seq = seq
		seq++
		if err := handle(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *Screener) runParallel(ctx context.Context, paths iter.Seq2[string, error], handle func(FileResult) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	items := make(chan WorkItem, 2*max(s.workers, 1))
	var listErr error

	go func() {
		defer close(items)
		seq := 0
		for path, err := range paths {
			if err != nil {
				listErr = fmt.Errorf("list sample files: %w", err)
				return
			}
			select {
			case items <- WorkItem{Seq: seq, Path: path}:
				seq++
			case <-ctx.Done():
				return
			}
		}
	}()

	results := s.ParallelScreen(ctx, items, s.workers)

	if err := OrderedCollect(results, func(r FileResult) error {
		if err := handle(r); err != nil {
			cancel()
			return err
		}
		return nil
	}); err != nil {
		return err
	}

	if listErr != nil {
		return listErr
	}
	return ctx.Err()
}

// emit applies the error policy to one result and writes its rows.
func (s *Screener) emit(ctx context.Context, r FileResult, sum *Summary) error {
	if r.Err != nil {
		return r.Err
	}

	sum.Files++
	log := s.logger.With(zap.String("path", r.Path), zap.String("format", r.Format.String()))

	switch {
	case r.Failed != nil:
		log.Error("skipping sample file", zap.Error(r.Failed))
		sum.Failed = append(sum.Failed, FileError{Path: r.Path, Err: r.Failed})
		if s.metrics != nil {
			s.metrics.FilesFailed.Inc()
		}
		return nil
	case r.Unrecognized != nil:
		log.Warn("not an ivar variants file, treating as empty", zap.Error(r.Unrecognized))
		sum.Unrecognized++
		if s.metrics != nil {
			s.metrics.FilesUnrecognized.Inc()
		}
	}

	sum.Variants += r.Variants
	sum.Hits += len(r.Matches)
	log.Debug("screened sample",
		zap.String("sample", r.Sample),
		zap.Int("variants", r.Variants),
		zap.Int("hits", len(r.Matches)))

	if s.metrics != nil {
		s.metrics.FilesScreened.WithLabelValues(r.Format.String()).Inc()
		s.metrics.VariantsParsed.WithLabelValues(r.Format.String()).Add(float64(r.Variants))
		for _, m := range r.Matches {
			s.metrics.WatchlistHits.WithLabelValues(m.Name()).Inc()
		}
	}

	if len(r.Matches) > 0 {
		sum.SamplesWithHits++
		if s.metrics != nil {
			s.metrics.SamplesWithHits.Inc()
		}
		if err := s.writer.WriteSample(r.Sample, r.Matches); err != nil {
			return fmt.Errorf("write sample %s: %w", r.Sample, err)
		}
	}

	if s.store != nil {
		if err := s.record(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (s *Screener) record(ctx context.Context, r FileResult) error {
	rec := duckdb.SampleRecord{
		Sample:     r.Sample,
		Path:       r.Path,
		Format:     r.Format.String(),
		Watchlist:  s.wl.Name(),
		Variants:   int64(r.Variants),
		Hits:       int64(len(r.Matches)),
		ScreenedAt: s.now(),
	}
	if info, err := s.opener.Stat(ctx, r.Path); err == nil {
		rec.FileSize = info.Size
		rec.FileModTime = info.ModTime
	} else {
		s.logger.Debug("stat sample file", zap.String("path", r.Path), zap.Error(err))
	}

	if err := s.store.WriteHits(ctx, r.Sample, r.Matches); err != nil {
		return fmt.Errorf("store hits for %s: %w", r.Sample, err)
	}
	if err := s.store.RecordSample(ctx, rec); err != nil {
		return fmt.Errorf("store sample %s: %w", r.Sample, err)
	}
	return nil
}
