// Package vcf provides VCF file parsing functionality.
package vcf

import (
	"strconv"
	"strings"
)

// Unnamed is the name given to variants that carry no Name annotation.
const Unnamed = "unnamed"

// keySep separates the identity fields in a variant key.
const keySep = ","

// Variant type labels returned by Type.
const (
	TypeSNV     = "SNV"
	TypeMNV     = "MNV"
	TypeIns     = "INS"
	TypeDel     = "DEL"
	TypeComplex = "COMPLEX"
)

// Variant represents a single genomic variant with exactly one alternate allele.
type Variant struct {
	Chrom string // Contig name (e.g., "MN908947.3", "chr1")
	Pos   int64  // 1-based genomic position
	Ref   string // Reference allele
	Alt   string // Alternate allele
	Name  string // Mutation label (Unnamed unless annotated)
}

// NewVariant creates an unnamed variant.
func NewVariant(chrom string, pos int64, ref, alt string) *Variant {
	return &Variant{
		Chrom: chrom,
		Pos:   pos,
		Ref:   ref,
		Alt:   alt,
		Name:  Unnamed,
	}
}

// Key returns the identity of the variant: contig, position, reference and
// alternate joined by commas. The name is not part of the key.
func (v *Variant) Key() string {
	return FormatKey(v.Chrom, v.Pos, v.Ref, v.Alt)
}

// FormatKey builds a variant key from its identity fields.
func FormatKey(chrom string, pos int64, ref, alt string) string {
	var b strings.Builder
	b.Grow(len(chrom) + len(ref) + len(alt) + 24)
	b.WriteString(chrom)
	b.WriteString(keySep)
	b.WriteString(strconv.FormatInt(pos, 10))
	b.WriteString(keySep)
	b.WriteString(ref)
	b.WriteString(keySep)
	b.WriteString(alt)
	return b.String()
}

// IsSNV returns true if the variant is a single nucleotide variant.
func (v *Variant) IsSNV() bool {
	return len(v.Ref) == 1 && len(v.Alt) == 1
}

// IsIndel returns true if the variant is an insertion or deletion.
func (v *Variant) IsIndel() bool {
	return len(v.Ref) != len(v.Alt)
}

// IsInsertion returns true if the variant is an insertion.
func (v *Variant) IsInsertion() bool {
	return len(v.Alt) > len(v.Ref)
}

// IsDeletion returns true if the variant is a deletion.
func (v *Variant) IsDeletion() bool {
	return len(v.Ref) > len(v.Alt)
}

// Type classifies the variant as SNV, MNV, INS, DEL or COMPLEX.
// Insertions and deletions must share their first base with the other
// allele; anything else with unequal lengths is COMPLEX.
func (v *Variant) Type() string {
	switch {
	case v.IsSNV():
		return TypeSNV
	case !v.IsIndel():
		return TypeMNV
	case v.Ref == "" || v.Alt == "" || v.Ref[0] != v.Alt[0]:
		return TypeComplex
	case v.IsInsertion():
		return TypeIns
	default:
		return TypeDel
	}
}
