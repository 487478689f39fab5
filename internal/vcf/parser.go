// Package vcf provides VCF file parsing functionality.
package vcf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// InfoName is the INFO key holding a variant's display name.
const InfoName = "Name"

// Parser reads variants from a VCF file.
type Parser struct {
	reader      *bufio.Reader
	closers     []io.Closer
	lineNumber  int
	header      []string
	sampleNames []string // sample names from #CHROM header line
}

// NewParser creates a new VCF parser for the given file.
// Supports both plain VCF and gzipped VCF (.vcf.gz) files.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	p, err := newParser(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	p.closers = append(p.closers, file)
	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin or an
// S3 object body). Closing the parser does not close r.
func NewParserFromReader(r io.Reader) (*Parser, error) {
	return newParser(r)
}

func newParser(r io.Reader) (*Parser, error) {
	reader, gz, err := NewLineReader(r)
	if err != nil {
		return nil, err
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

// parseHeader reads and stores VCF header lines.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("read header: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")

		if strings.HasPrefix(line, "##") {
			p.header = append(p.header, line)
			continue
		}

		if strings.HasPrefix(line, "#CHROM") {
			p.header = append(p.header, line)
			// Extract sample names from columns after FORMAT (index 9+)
			fields := strings.Split(line, "\t")
			if len(fields) > 9 {
				p.sampleNames = fields[9:]
			}
			return nil
		}

		// Non-header line encountered without #CHROM
		return &ParseError{
			Line:    p.lineNumber,
			Message: "expected #CHROM header line",
		}
	}

	return &ParseError{
		Line:    p.lineNumber,
		Message: "no #CHROM header line found",
	}
}

// Next reads the next variant from the VCF file.
// Returns nil, nil when there are no more variants.
// A record with more than one (or no) alternate allele yields an
// *UnsupportedRecordError.
func (p *Parser) Next() (*Variant, error) {
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
		if line == "" {
			continue
		}

		return p.parseLine(line)
	}
}

// parseLine parses a single VCF data line into a Variant.
func (p *Parser) parseLine(line string) (*Variant, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least 8 columns, found %d", len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || pos < 0 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid position: %s", fields[1]),
		}
	}

	alt := fields[4]
	if alt == "." || alt == "" || strings.Contains(alt, ",") {
		return nil, &UnsupportedRecordError{
			Line:  p.lineNumber,
			Chrom: fields[0],
			Pos:   pos,
			Alt:   alt,
		}
	}

	v := NewVariant(fields[0], pos, fields[3], alt)
	if name, ok := parseInfo(fields[7])[InfoName].(string); ok && name != "" {
		v.Name = name
	}

	return v, nil
}

// parseInfo parses the INFO field into a map.
func parseInfo(info string) map[string]interface{} {
	result := make(map[string]interface{})
	if info == "." {
		return result
	}

	for _, kv := range strings.Split(info, ";") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			result[parts[0]] = parts[1]
		} else {
			// Flag-type INFO field
			result[parts[0]] = true
		}
	}

	return result
}

// Header returns the VCF header lines.
func (p *Parser) Header() []string {
	return p.header
}

// SampleNames returns sample names from the #CHROM header line.
// Returns nil if no sample columns are present.
func (p *Parser) SampleNames() []string {
	return p.sampleNames
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

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}

// UnsupportedRecordError reports a record that does not carry exactly one
// alternate allele. Such records are never split or guessed at.
type UnsupportedRecordError struct {
	Line  int
	Chrom string
	Pos   int64
	Alt   string
}

func (e *UnsupportedRecordError) Error() string {
	if e.Alt == "." || e.Alt == "" {
		return fmt.Sprintf("vcf record at line %d (%s:%d) has no alternate allele", e.Line, e.Chrom, e.Pos)
	}
	return fmt.Sprintf("multi-allelic vcf record at line %d (%s:%d ALT=%s) not supported", e.Line, e.Chrom, e.Pos, e.Alt)
}
