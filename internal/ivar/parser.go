// Package ivar parses the variants.tsv files written by the iVar amplicon
// variant caller.
package ivar

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jts/ncov-watch/internal/vcf"
)

// Required iVar column names
const (
	ColRegion = "REGION"
	ColPos    = "POS"
	ColRef    = "REF"
	ColAlt    = "ALT"
)

// Allele sigils used by iVar for indels.
const (
	deletionSigil  = '-'
	insertionSigil = '+'
)

// ErrUnrecognized is returned when a file cannot be read as an iVar
// variants file at all. Callers treat such files as having no variants.
var ErrUnrecognized = errors.New("not an ivar variants file")

// ColumnIndices holds the indices of the required iVar columns.
type ColumnIndices struct {
	Region int
	Pos    int
	Ref    int
	Alt    int
}

// Parser reads variants from an iVar variants.tsv file.
type Parser struct {
	reader     *bufio.Reader
	closers    []io.Closer
	lineNumber int
	columns    ColumnIndices
	headerLine string
}

// NewParser creates a new iVar parser for the given file.
// A file that cannot be opened is reported as ErrUnrecognized.
func NewParser(path string) (*Parser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ivar file: %w: %w", ErrUnrecognized, err)
	}

	p, err := newParser(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	p.closers = append(p.closers, file)
	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader.
// Closing the parser does not close r.
func NewParserFromReader(r io.Reader) (*Parser, error) {
	return newParser(r)
}

func newParser(r io.Reader) (*Parser, error) {
	reader, gz, err := vcf.NewLineReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnrecognized, err)
	}

	p := &Parser{reader: reader}
	if gz != nil {
		p.closers = append(p.closers, gz)
	}

	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// parseHeader reads the header line and locates the required columns.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return fmt.Errorf("%w: no header line found", ErrUnrecognized)
			}
			return fmt.Errorf("%w: read header: %w", ErrUnrecognized, err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		p.headerLine = line
		return p.parseColumnIndices(line)
	}
}

// parseColumnIndices finds the required columns in the header line.
// A header naming none of them belongs to some other format; a header
// naming only some of them is a broken iVar file.
func (p *Parser) parseColumnIndices(headerLine string) error {
	p.columns = ColumnIndices{Region: -1, Pos: -1, Ref: -1, Alt: -1}

	for i, col := range strings.Split(headerLine, "\t") {
		switch strings.TrimSpace(col) {
		case ColRegion:
			p.columns.Region = i
		case ColPos:
			p.columns.Pos = i
		case ColRef:
			p.columns.Ref = i
		case ColAlt:
			p.columns.Alt = i
		}
	}

	required := []struct {
		name string
		idx  int
	}{
		{ColRegion, p.columns.Region},
		{ColPos, p.columns.Pos},
		{ColRef, p.columns.Ref},
		{ColAlt, p.columns.Alt},
	}

	var missing []string
	for _, r := range required {
		if r.idx == -1 {
			missing = append(missing, r.name)
		}
	}

	switch len(missing) {
	case 0:
		return nil
	case len(required):
		return fmt.Errorf("%w: header has none of the %s columns", ErrUnrecognized, strings.Join(columnNames(), ", "))
	default:
		return &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("required column '%s' not found in header", missing[0]),
		}
	}
}

// Next reads the next variant from the iVar file.
// Returns nil, nil when there are no more variants.
func (p *Parser) Next() (*vcf.Variant, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read variant line: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		return p.parseLine(line)
	}
}

// parseLine parses a single iVar data line into a normalized Variant.
func (p *Parser) parseLine(line string) (*vcf.Variant, error) {
	fields := strings.Split(line, "\t")

	minCols := max(p.columns.Region, p.columns.Pos, p.columns.Ref, p.columns.Alt)
	if len(fields) <= minCols {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least %d columns, found %d", minCols+1, len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[p.columns.Pos], 10, 64)
	if err != nil || pos < 0 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid position: %s", fields[p.columns.Pos]),
		}
	}

	ref := fields[p.columns.Ref]
	alt := fields[p.columns.Alt]
	if ref == "" || alt == "" {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: "empty REF or ALT allele",
		}
	}

	ref, alt = Normalize(ref, alt)
	return vcf.NewVariant(fields[p.columns.Region], pos, ref, alt), nil
}

// Normalize rewrites iVar indel notation into VCF-style alleles anchored on
// the preceding reference base:
//
//	REF=AT ALT=-T  ->  ATT > A
//	REF=A  ALT=+CG ->  A > ACG
//
// Substitutions are returned unchanged. ref must not be empty.
func Normalize(ref, alt string) (string, string) {
	if alt == "" {
		return ref, alt
	}

	switch alt[0] {
	case deletionSigil:
		ref += alt[1:]
		return ref, ref[:1]
	case insertionSigil:
		return ref, ref + alt[1:]
	default:
		return ref, alt
	}
}

// Header returns the iVar header line.
func (p *Parser) Header() string {
	return p.headerLine
}

// Columns returns the parsed column indices.
func (p *Parser) Columns() ColumnIndices {
	return p.columns
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	var firstErr error
	for _, c := range p.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.closers = nil
	return firstErr
}

func columnNames() []string {
	return []string{ColRegion, ColPos, ColRef, ColAlt}
}

// ParseError represents an error during iVar parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ivar parse error at line %d: %s", e.Line, e.Message)
}
