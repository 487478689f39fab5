package fileset

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"run/sample1.variants.tsv", FormatIvar},
		{"sample1.variants.tsv.gz", FormatIvar},
		{"s3://bucket/x/sample.variants.tsv", FormatIvar},
		{"run/sample1.pass.vcf", FormatVCF},
		{"run/sample1.pass.vcf.gz", FormatVCF},
		{"sample1.tsv", FormatVCF},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.path))
		})
	}
	assert.Equal(t, "ivar", FormatIvar.String())
	assert.Equal(t, "vcf", FormatVCF.String())
}

func TestSampleName(t *testing.T) {
	assert.Equal(t, "sample1.pass.vcf", SampleName("/data/run1/sample1/sample1.pass.vcf"))
	assert.Equal(t, "sample1.variants.tsv", SampleName("sample1.variants.tsv"))
	assert.Equal(t, "b.pass.vcf", SampleName("s3://bucket/run/b.pass.vcf"))
}

func TestMatchesPatterns(t *testing.T) {
	assert.True(t, MatchesPatterns("x/sample.pass.vcf"))
	assert.True(t, MatchesPatterns("x/sample.pass.vcf.gz"))
	assert.True(t, MatchesPatterns("x/sample.variants.tsv"))
	assert.True(t, MatchesPatterns("pass.vcf"))
	assert.False(t, MatchesPatterns("x/sample.fail.vcf"))
	assert.False(t, MatchesPatterns("x/sample.variants.tsv.bak"))
	assert.False(t, MatchesPatterns("x/sample.pass.vcf.gz.tbi"))
}

func TestLines(t *testing.T) {
	input := "a.pass.vcf\n\nb.variants.tsv  \r\n   \nc.pass.vcf"

	var got []string
	for p, err := range Lines(strings.NewReader(input)) {
		require.NoError(t, err)
		got = append(got, p)
	}
	assert.Equal(t, []string{"a.pass.vcf", "b.variants.tsv", "c.pass.vcf"}, got)
}

func TestLines_StopEarly(t *testing.T) {
	var got []string
	for p := range Lines(strings.NewReader("a\nb\nc\n")) {
		got = append(got, p)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestWalk_LocalDirectory(t *testing.T) {
	root := t.TempDir()
	files := []string{
		"b/b.variants.tsv",
		"a/a.pass.vcf",
		"a/a.fail.vcf",
		"c/nested/c.pass.vcf.gz",
		"c/c.consensus.fa",
	}
	for _, f := range files {
		p := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	}

	opener := NewOpener(S3Config{})
	var got []string
	for p, err := range opener.Walk(context.Background(), root) {
		require.NoError(t, err)
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		got = append(got, filepath.ToSlash(rel))
	}

	assert.Equal(t, []string{
		"a/a.pass.vcf",
		"b/b.variants.tsv",
		"c/nested/c.pass.vcf.gz",
	}, got)
}

func TestWalk_MissingDirectory(t *testing.T) {
	opener := NewOpener(S3Config{})

	var errs []error
	for _, err := range opener.Walk(context.Background(), filepath.Join(t.TempDir(), "nope")) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], os.ErrNotExist)
}

func TestOpener_Local(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.pass.vcf")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0644))

	opener := NewOpener(S3Config{})
	rc, err := opener.Open(context.Background(), p)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	info, err := opener.Stat(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)

	_, err = opener.Open(context.Background(), p+".missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
