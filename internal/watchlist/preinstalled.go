package watchlist

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"
)

//go:embed watchlists/*.vcf
var builtin embed.FS

const (
	builtinDir = "watchlists"
	builtinExt = ".vcf"
)

// ErrUnknownWatchlist is returned when a watchlist argument is neither a
// preinstalled name nor a readable file.
var ErrUnknownWatchlist = errors.New("unknown watchlist")

// Opener opens a local or remote path for reading.
type Opener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// Preinstalled returns the names of the watchlists bundled with the binary.
func Preinstalled() []string {
	entries, err := fs.ReadDir(builtin, builtinDir)
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), builtinExt) {
			names = append(names, strings.TrimSuffix(e.Name(), builtinExt))
		}
	}
	slices.Sort(names)
	return names
}

// IsPreinstalled reports whether name is a bundled watchlist.
func IsPreinstalled(name string) bool {
	return slices.Contains(Preinstalled(), name)
}

// Open loads a preinstalled watchlist by name.
func Open(name string) (*Watchlist, error) {
	f, err := builtin.Open(path.Join(builtinDir, name+builtinExt))
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownWatchlist, name)
	}
	defer f.Close()

	w, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("load watchlist %s: %w", name, err)
	}
	w.name = name
	return w, nil
}

// Resolve loads the preinstalled watchlist called nameOrPath, or failing
// that, the VCF file at that path.
func Resolve(ctx context.Context, nameOrPath string, opener Opener) (*Watchlist, error) {
	if IsPreinstalled(nameOrPath) {
		return Open(nameOrPath)
	}

	rc, err := opener.Open(ctx, nameOrPath)
	if err != nil {
		return nil, fmt.Errorf("%w %q (preinstalled: %s): %w",
			ErrUnknownWatchlist, nameOrPath, strings.Join(Preinstalled(), ", "), err)
	}
	defer rc.Close()

	w, err := Read(rc)
	if err != nil {
		return nil, fmt.Errorf("load watchlist %s: %w", nameOrPath, err)
	}
	w.name = nameOrPath
	return w, nil
}
