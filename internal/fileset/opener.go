package fileset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Opener opens sample files by path. Plain paths are read from the local
// filesystem, "-" is standard input and s3://bucket/key URIs are fetched
// from S3. The S3 client is created on first use.
type Opener struct {
	cfg S3Config

	mu     sync.Mutex
	remote *s3Store
}

// NewOpener creates an opener using cfg for S3 access.
func NewOpener(cfg S3Config) *Opener {
	return &Opener{cfg: cfg}
}

// NewOpenerWithClient creates an opener with an existing S3 client.
func NewOpenerWithClient(client *s3.Client) *Opener {
	return &Opener{remote: &s3Store{client: client}}
}

func (o *Opener) s3(ctx context.Context) (*s3Store, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.remote == nil {
		client, err := NewS3Client(ctx, o.cfg)
		if err != nil {
			return nil, err
		}
		o.remote = &s3Store{client: client}
	}
	return o.remote, nil
}

// Open opens path for reading.
func (o *Opener) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	if _, _, ok := ParseS3URI(path); ok {
		remote, err := o.s3(ctx)
		if err != nil {
			return nil, err
		}
		return remote.open(ctx, path)
	}

	return os.Open(path)
}

// Stat returns the size and modification time of path.
func (o *Opener) Stat(ctx context.Context, path string) (FileInfo, error) {
	if _, _, ok := ParseS3URI(path); ok {
		remote, err := o.s3(ctx)
		if err != nil {
			return FileInfo{}, err
		}
		return remote.stat(ctx, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{Path: path, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Walk yields the sample files under root whose names match Patterns.
// Local directories are scanned recursively in lexical order; S3 prefixes
// are listed in key order.
func (o *Opener) Walk(ctx context.Context, root string) iter.Seq2[string, error] {
	if _, _, ok := ParseS3URI(root); ok {
		return func(yield func(string, error) bool) {
			remote, err := o.s3(ctx)
			if err != nil {
				yield("", err)
				return
			}
			for p, err := range remote.walk(ctx, root) {
				if !yield(p, err) {
					return
				}
			}
		}
	}
	return walkDir(ctx, root)
}

var errStopWalk = errors.New("stop walk")

func walkDir(ctx context.Context, root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() || !MatchesPatterns(p) {
				return nil
			}
			if !yield(p, nil) {
				return errStopWalk
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopWalk) {
			yield("", fmt.Errorf("scan %s: %w", root, err))
		}
	}
}
