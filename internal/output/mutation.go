package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/jts/ncov-watch/internal/match"
)

// MutationWriter writes one tab-delimited row per watchlist hit.
type MutationWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewMutationWriter creates a new per-mutation writer.
func NewMutationWriter(w io.Writer) *MutationWriter {
	return &MutationWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"sample",
			"mutation",
			"contig",
			"position",
			"reference",
			"alt",
		},
	}
}

// WriteHeader writes the header line.
func (mw *MutationWriter) WriteHeader() error {
	_, err := mw.w.WriteString(strings.Join(mw.columns, "\t") + "\n")
	return err
}

// WriteSample writes a row for each match using the watchlist name and the
// sample's own alleles.
func (mw *MutationWriter) WriteSample(sample string, matches []match.Match) error {
	for _, m := range matches {
		v := m.Sample
		values := []string{
			sample,
			m.Name(),
			v.Chrom,
			strconv.FormatInt(v.Pos, 10),
			v.Ref,
			v.Alt,
		}
		if _, err := mw.w.WriteString(strings.Join(values, "\t") + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (mw *MutationWriter) Flush() error {
	return mw.w.Flush()
}
