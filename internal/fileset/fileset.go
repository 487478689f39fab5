// Package fileset discovers sample variant files and opens them from local
// disk or S3.
package fileset

import (
	"bufio"
	"io"
	"iter"
	"path"
	"path/filepath"
	"strings"
)

// Format identifies the encoding of a sample file.
type Format int

const (
	// FormatVCF is a (possibly compressed) VCF file.
	FormatVCF Format = iota
	// FormatIvar is an iVar variants.tsv file.
	FormatIvar
)

func (f Format) String() string {
	if f == FormatIvar {
		return "ivar"
	}
	return "vcf"
}

// ivarMarker identifies iVar output by file name.
const ivarMarker = "variants.tsv"

// Patterns are the base-name globs picked up by a directory scan.
var Patterns = []string{"*pass.vcf", "*pass.vcf.gz", "*variants.tsv"}

// DetectFormat infers the sample format from the file name: any path
// containing "variants.tsv" is iVar output, everything else is VCF.
func DetectFormat(p string) Format {
	if strings.Contains(p, ivarMarker) {
		return FormatIvar
	}
	return FormatVCF
}

// SampleName returns the name used for a sample file in reports.
func SampleName(p string) string {
	if bucket, key, ok := ParseS3URI(p); ok {
		if key == "" {
			return bucket
		}
		return path.Base(key)
	}
	return filepath.Base(p)
}

// MatchesPatterns reports whether the base name of p matches one of
// Patterns.
func MatchesPatterns(p string) bool {
	base := path.Base(filepath.ToSlash(p))
	for _, pattern := range Patterns {
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// Lines yields one path per line of r. Trailing whitespace is removed and
// blank lines are skipped.
func Lines(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), " \t\r\n")
			if line == "" {
				continue
			}
			if !yield(line, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", err)
		}
	}
}

// Slice yields the given paths in order.
func Slice(paths []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, p := range paths {
			if !yield(p, nil) {
				return
			}
		}
	}
}
