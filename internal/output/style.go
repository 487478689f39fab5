// Package output provides watchlist report formatters.
package output

import (
	"errors"
	"fmt"
	"io"

	"github.com/jts/ncov-watch/internal/match"
)

// ErrUnknownStyle is returned for an unrecognized output style name.
var ErrUnknownStyle = errors.New("unknown output style")

// Style selects the report layout.
type Style int

const (
	// StyleMutation writes one row per watchlist hit.
	StyleMutation Style = iota
	// StyleSummary writes one row per sample listing its hits.
	StyleSummary
)

// Styles lists the accepted style names.
var Styles = []string{"mutation", "summary"}

func (s Style) String() string {
	switch s {
	case StyleMutation:
		return "mutation"
	case StyleSummary:
		return "summary"
	default:
		return fmt.Sprintf("Style(%d)", int(s))
	}
}

// ParseStyle converts a style name to a Style.
func ParseStyle(name string) (Style, error) {
	switch name {
	case "mutation":
		return StyleMutation, nil
	case "summary":
		return StyleSummary, nil
	default:
		return 0, fmt.Errorf("%w %q (expected mutation or summary)", ErrUnknownStyle, name)
	}
}

// Writer renders watchlist matches for a run.
type Writer interface {
	WriteHeader() error
	// WriteSample writes all rows for one sample. Samples without
	// matches produce no rows.
	WriteSample(sample string, matches []match.Match) error
	Flush() error
}

// NewWriter returns the writer for style.
func NewWriter(style Style, w io.Writer) (Writer, error) {
	switch style {
	case StyleMutation:
		return NewMutationWriter(w), nil
	case StyleSummary:
		return NewSummaryWriter(w), nil
	default:
		return nil, fmt.Errorf("%w %s", ErrUnknownStyle, style)
	}
}
