package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/jts/ncov-watch/internal/match"
)

// mutationSep joins mutation names in a summary row.
const mutationSep = ","

// SummaryWriter writes one tab-delimited row per sample with hits.
type SummaryWriter struct {
	w *bufio.Writer
}

// NewSummaryWriter creates a new per-sample summary writer.
func NewSummaryWriter(w io.Writer) *SummaryWriter {
	return &SummaryWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the header line.
func (sw *SummaryWriter) WriteHeader() error {
	_, err := sw.w.WriteString("sample\tmutations\n")
	return err
}

// WriteSample writes the sample name and its comma-joined mutation names.
func (sw *SummaryWriter) WriteSample(sample string, matches []match.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := sw.w.WriteString(sample + "\t" + strings.Join(match.Names(matches), mutationSep) + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (sw *SummaryWriter) Flush() error {
	return sw.w.Flush()
}
