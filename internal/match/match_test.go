package match

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jts/ncov-watch/internal/ivar"
	"github.com/jts/ncov-watch/internal/vcf"
)

type mapLookup map[string]*vcf.Variant

func (m mapLookup) Lookup(key string) (*vcf.Variant, bool) {
	v, ok := m[key]
	return v, ok
}

func named(chrom string, pos int64, ref, alt, name string) *vcf.Variant {
	v := vcf.NewVariant(chrom, pos, ref, alt)
	v.Name = name
	return v
}

func watchlistOf(vs ...*vcf.Variant) mapLookup {
	m := make(mapLookup)
	for _, v := range vs {
		m[v.Key()] = v
	}
	return m
}

func TestFind_OrderAndMultiplicity(t *testing.T) {
	wl := watchlistOf(
		named("chr1", 501, "A", "T", "N501Y"),
		named("chr1", 614, "A", "G", "D614G"),
	)

	samples := []*vcf.Variant{
		vcf.NewVariant("chr1", 614, "A", "G"),
		vcf.NewVariant("chr1", 100, "C", "T"),
		vcf.NewVariant("chr1", 501, "A", "T"),
		vcf.NewVariant("chr1", 614, "A", "G"),
	}

	matches := Find(samples, wl)
	require.Len(t, matches, 3)
	assert.Equal(t, []string{"D614G", "N501Y", "D614G"}, Names(matches))
	assert.Same(t, samples[0], matches[0].Sample)
	assert.Same(t, samples[2], matches[1].Sample)
	assert.Same(t, samples[3], matches[2].Sample)
}

func TestFind_NoHits(t *testing.T) {
	wl := watchlistOf(named("chr1", 501, "A", "T", "N501Y"))

	matches := Find([]*vcf.Variant{vcf.NewVariant("chr1", 501, "A", "G")}, wl)
	assert.Empty(t, matches)
	assert.Empty(t, Find(nil, wl))
}

func TestScan_CrossFormat(t *testing.T) {
	wl := watchlistOf(named("chr1", 69, "ATACATG", "A", "HV69-70del"))

	input := "REGION\tPOS\tREF\tALT\nchr1\t69\tA\t-TACATG\nchr1\t70\tT\tC\n"
	p, err := ivar.NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)

	matches, n, err := Scan(p, wl)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, matches, 1)
	assert.Equal(t, "HV69-70del", matches[0].Name())
	assert.Equal(t, "ATACATG", matches[0].Sample.Ref)
	assert.Equal(t, "A", matches[0].Sample.Alt)
}

func TestScan_PropagatesUnsupportedRecord(t *testing.T) {
	wl := watchlistOf(named("chr1", 501, "A", "T", "N501Y"))

	input := "##fileformat=VCFv4.2\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"chr1\t501\t.\tA\tT\t.\t.\t.\n" +
		"chr1\t502\t.\tA\tT,C\t.\t.\t.\n"
	p, err := vcf.NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)

	matches, n, err := Scan(p, wl)
	assert.Nil(t, matches)
	assert.Equal(t, 1, n)

	var unsupported *vcf.UnsupportedRecordError
	assert.True(t, errors.As(err, &unsupported))
}
