package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testdataDir = "../../testdata"

func testdata(name string) string {
	return filepath.Join(testdataDir, name)
}

// runCLI runs the command with an isolated home directory.
func runCLI(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var out, errOut bytes.Buffer
	code = run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0755))
	require.NoError(t, os.WriteFile(dst, data, 0644))
}

func TestScreen_MutationStyle(t *testing.T) {
	code, stdout, stderr := runCLI(t, "", "screen",
		"-m", testdata("watchlist.vcf"),
		testdata("sample1.pass.vcf"),
		testdata("sample2.variants.tsv"))
	require.Equal(t, ExitSuccess, code, stderr)

	want := "sample\tmutation\tcontig\tposition\treference\talt\n" +
		"sample1.pass.vcf\tN501Y\tchr1\t501\tA\tT\n" +
		"sample2.variants.tsv\tHV69-70del\tchr1\t69\tATACATG\tA\n" +
		"sample2.variants.tsv\tN501Y\tchr1\t501\tA\tT\n"
	assert.Equal(t, want, stdout)
}

func TestScreen_SummaryStyle(t *testing.T) {
	code, stdout, stderr := runCLI(t, "", "screen",
		"-m", testdata("watchlist.vcf"),
		"-s", "summary",
		testdata("sample1.pass.vcf"),
		testdata("sample2.variants.tsv"))
	require.Equal(t, ExitSuccess, code, stderr)

	want := "sample\tmutations\n" +
		"sample1.pass.vcf\tN501Y\n" +
		"sample2.variants.tsv\tHV69-70del,N501Y\n"
	assert.Equal(t, want, stdout)
}

func TestScreen_UnknownStyle(t *testing.T) {
	code, stdout, stderr := runCLI(t, "", "screen",
		"-m", testdata("watchlist.vcf"),
		"-s", "table",
		testdata("sample1.pass.vcf"))
	assert.Equal(t, ExitError, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "unknown output style")
}

func TestScreen_UnknownWatchlist(t *testing.T) {
	code, stdout, stderr := runCLI(t, "", "screen",
		"-m", "b.1.617",
		testdata("sample1.pass.vcf"))
	assert.Equal(t, ExitError, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "unknown watchlist")
	assert.Contains(t, stderr, "b.1.1.7")
}

func TestScreen_MissingWatchlistFlag(t *testing.T) {
	code, _, stderr := runCLI(t, "", "screen", testdata("sample1.pass.vcf"))
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "--mutation-set is required")
}

func TestScreen_MultiAllelicAbortsWithoutOutput(t *testing.T) {
	code, stdout, stderr := runCLI(t, "", "screen",
		"-m", testdata("watchlist.vcf"),
		testdata("sample1.pass.vcf"),
		testdata("multiallelic.vcf"))
	assert.Equal(t, ExitError, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "multi-allelic")
}

func TestScreen_MissingColumnReportsAfterOutput(t *testing.T) {
	code, stdout, stderr := runCLI(t, "", "screen",
		"-m", testdata("watchlist.vcf"),
		testdata("missing_alt.variants.tsv"),
		testdata("sample1.pass.vcf"))
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stdout, "sample1.pass.vcf\tN501Y")
	assert.Contains(t, stderr, "missing_alt.variants.tsv")
	assert.Contains(t, stderr, "ALT")
}

func TestScreen_Directory(t *testing.T) {
	dir := t.TempDir()
	copyFile(t, testdata("sample2.variants.tsv"), filepath.Join(dir, "b", "sample2.variants.tsv"))
	copyFile(t, testdata("sample1.pass.vcf"), filepath.Join(dir, "a", "sample1.pass.vcf"))
	copyFile(t, testdata("sample1.pass.vcf"), filepath.Join(dir, "a", "ignored.vcf"))

	code, stdout, stderr := runCLI(t, "", "screen",
		"-m", testdata("watchlist.vcf"),
		"-s", "summary",
		"-d", dir)
	require.Equal(t, ExitSuccess, code, stderr)

	want := "sample\tmutations\n" +
		"sample1.pass.vcf\tN501Y\n" +
		"sample2.variants.tsv\tHV69-70del,N501Y\n"
	assert.Equal(t, want, stdout)
}

func TestScreen_PathsFromStdin(t *testing.T) {
	stdin := testdata("sample2.variants.tsv") + "\n\n" + testdata("sample1.pass.vcf") + "\n"

	code, stdout, stderr := runCLI(t, stdin, "screen",
		"-m", testdata("watchlist.vcf"),
		"-s", "summary")
	require.Equal(t, ExitSuccess, code, stderr)

	want := "sample\tmutations\n" +
		"sample2.variants.tsv\tHV69-70del,N501Y\n" +
		"sample1.pass.vcf\tN501Y\n"
	assert.Equal(t, want, stdout)
}

func TestScreen_ThreadsMatchSequential(t *testing.T) {
	args := []string{"screen", "-m", testdata("watchlist.vcf"),
		testdata("sample1.pass.vcf"),
		testdata("sample2.variants.tsv"),
		testdata("empty.variants.tsv"),
		testdata("sample1.pass.vcf")}

	code, sequential, stderr := runCLI(t, "", args...)
	require.Equal(t, ExitSuccess, code, stderr)

	code, parallel, stderr := runCLI(t, "", append(args, "--threads", "4")...)
	require.Equal(t, ExitSuccess, code, stderr)

	assert.Equal(t, sequential, parallel)
}

func TestScreen_OutputFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "report.tsv")

	code, stdout, stderr := runCLI(t, "", "screen",
		"-m", testdata("watchlist.vcf"),
		"-o", outPath,
		testdata("sample1.pass.vcf"))
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sample1.pass.vcf\tN501Y\tchr1\t501\tA\tT\n")
}

func TestScreen_StyleFromEnvironment(t *testing.T) {
	t.Setenv("NCOV_WATCH_OUTPUT_STYLE", "summary")

	code, stdout, stderr := runCLI(t, "", "screen",
		"-m", testdata("watchlist.vcf"),
		testdata("sample1.pass.vcf"))
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "sample\tmutations\nsample1.pass.vcf\tN501Y\n", stdout)
}

func TestScreen_DatabaseAndQuery(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "hits.duckdb")
	metricsPath := filepath.Join(dir, "ncov_watch.prom")

	code, _, stderr := runCLI(t, "", "screen",
		"-m", testdata("watchlist.vcf"),
		"--db", dbPath,
		"--metrics-file", metricsPath,
		testdata("sample1.pass.vcf"),
		testdata("sample2.variants.tsv"))
	require.Equal(t, ExitSuccess, code, stderr)

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "ncov_watch_samples_with_hits_total 2")

	code, stdout, stderr := runCLI(t, "", "query", "--db", dbPath, "--mutation", "N501Y")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "sample\tmutation\tcontig\tposition\tref\talt\ttype\n"+
		"sample1.pass.vcf\tN501Y\tchr1\t501\tA\tT\tSNV\n"+
		"sample2.variants.tsv\tN501Y\tchr1\t501\tA\tT\tSNV\n", stdout)

	code, stdout, stderr = runCLI(t, "", "query", "--db", dbPath, "--sample", "sample2.variants.tsv")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "sample2.variants.tsv\tHV69-70del\tchr1\t69\tATACATG\tA\tDEL\n")

	code, stdout, stderr = runCLI(t, "", "query", "--db", dbPath, "--samples")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "sample1.pass.vcf\t")
	assert.Contains(t, stdout, "sample2.variants.tsv\t")
}

func TestQuery_RequiresDB(t *testing.T) {
	code, _, stderr := runCLI(t, "", "query")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "--db is required")
}

func TestWatchlists(t *testing.T) {
	code, stdout, stderr := runCLI(t, "", "watchlists")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "b.1.1.7\nb.1.351\np.1\nspike_rbd\n", stdout)

	code, stdout, stderr = runCLI(t, "", "watchlists", "show", "b.1.1.7")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "S:N501Y\tMN908947.3\t23063\tA\tT\tSNV\n")

	code, stdout, stderr = runCLI(t, "", "watchlists", "show", testdata("watchlist.vcf"))
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "ins144\tchr1\t144\tT\tTAA\tINS\n")
}

func TestConfigSetGet(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var out, errOut bytes.Buffer
	code := run([]string{"config", "set", "watchlist", "b.1.351"}, strings.NewReader(""), &out, &errOut)
	require.Equal(t, ExitSuccess, code, errOut.String())
	assert.FileExists(t, filepath.Join(home, ".ncov-watch.yaml"))

	out.Reset()
	code = run([]string{"config", "get", "watchlist"}, strings.NewReader(""), &out, &errOut)
	require.Equal(t, ExitSuccess, code, errOut.String())
	assert.Equal(t, "b.1.351\n", out.String())

	// The configured watchlist is used when -m is not given.
	out.Reset()
	code = run([]string{"screen", "-s", "summary", testdata("sample1.pass.vcf")}, strings.NewReader(""), &out, &errOut)
	require.Equal(t, ExitSuccess, code, errOut.String())
	assert.Equal(t, "sample\tmutations\n", out.String())
}

func TestVersion(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "version")
	assert.Equal(t, ExitSuccess, code)
	assert.True(t, strings.HasPrefix(stdout, "ncov-watch version dev"))
}
