// Package match intersects sample variants with a watchlist.
package match

import (
	"fmt"

	"github.com/jts/ncov-watch/internal/vcf"
)

// Lookup finds a watchlist variant by key.
type Lookup interface {
	Lookup(key string) (*vcf.Variant, bool)
}

// Match pairs a sample variant with the watchlist entry it hit.
type Match struct {
	Sample *vcf.Variant
	Watch  *vcf.Variant
}

// Name returns the watchlist name of the matched mutation.
func (m Match) Name() string {
	return m.Watch.Name
}

// Find returns the sample variants present in the watchlist, in input order.
// Repeated sample variants produce repeated matches.
func Find(variants []*vcf.Variant, wl Lookup) []Match {
	var matches []Match
	for _, v := range variants {
		if w, ok := wl.Lookup(v.Key()); ok {
			matches = append(matches, Match{Sample: v, Watch: w})
		}
	}
	return matches
}

// Scan reads every variant from p and returns the watchlist hits in file
// order together with the number of variants read.
func Scan(p vcf.VariantParser, wl Lookup) ([]Match, int, error) {
	var (
		matches []Match
		n       int
	)
	for {
		v, err := p.Next()
		if err != nil {
			return nil, n, fmt.Errorf("read variant: %w", err)
		}
		if v == nil {
			return matches, n, nil
		}
		n++

		if w, ok := wl.Lookup(v.Key()); ok {
			matches = append(matches, Match{Sample: v, Watch: w})
		}
	}
}

// Names returns the watchlist names of matches, in order.
func Names(matches []Match) []string {
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Name()
	}
	return names
}
