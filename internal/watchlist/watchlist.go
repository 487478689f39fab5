// Package watchlist loads the reference set of mutations that samples are
// screened against.
package watchlist

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/jts/ncov-watch/internal/vcf"
)

// Watchlist maps variant keys to named watchlist variants.
// It is read-only after loading and safe for concurrent lookups.
type Watchlist struct {
	name    string
	entries map[string]*vcf.Variant
}

// Load reads a watchlist from a VCF file on disk.
func Load(path string) (*Watchlist, error) {
	p, err := vcf.NewParser(path)
	if err != nil {
		return nil, fmt.Errorf("load watchlist %s: %w", path, err)
	}
	defer p.Close()

	w, err := FromParser(p)
	if err != nil {
		return nil, fmt.Errorf("load watchlist %s: %w", path, err)
	}
	w.name = path
	return w, nil
}

// Read reads a watchlist in VCF format from r.
func Read(r io.Reader) (*Watchlist, error) {
	p, err := vcf.NewParserFromReader(r)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	return FromParser(p)
}

// FromParser builds a watchlist from every record the parser yields.
// When two records share a key the later one replaces the earlier one.
func FromParser(p vcf.VariantParser) (*Watchlist, error) {
	w := &Watchlist{entries: make(map[string]*vcf.Variant)}
	for {
		v, err := p.Next()
		if err != nil {
			return nil, err
		}
		if v == nil {
			return w, nil
		}
		w.entries[v.Key()] = v
	}
}

// Lookup returns the watchlist variant with the given key.
func (w *Watchlist) Lookup(key string) (*vcf.Variant, bool) {
	v, ok := w.entries[key]
	return v, ok
}

// Len returns the number of distinct watchlist variants.
func (w *Watchlist) Len() int {
	return len(w.entries)
}

// Name returns the preinstalled name or path the watchlist was loaded from.
func (w *Watchlist) Name() string {
	return w.name
}

// Entries returns the watchlist variants ordered by contig, position,
// reference and alternate allele.
func (w *Watchlist) Entries() []*vcf.Variant {
	out := make([]*vcf.Variant, 0, len(w.entries))
	for _, v := range w.entries {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b *vcf.Variant) int {
		return cmp.Or(
			cmp.Compare(a.Chrom, b.Chrom),
			cmp.Compare(a.Pos, b.Pos),
			cmp.Compare(a.Ref, b.Ref),
			cmp.Compare(a.Alt, b.Alt),
		)
	})
	return out
}
