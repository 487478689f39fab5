package fileset

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3Scheme = "s3://"

// S3Config holds the S3 client settings. Credentials fall back to the
// default AWS chain when AccessKeyID is empty.
type S3Config struct {
	Region          string
	Endpoint        string // optional; e.g. a MinIO URL
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// ParseS3URI splits s3://bucket/key into its parts.
func ParseS3URI(uri string) (bucket, key string, ok bool) {
	if !strings.HasPrefix(uri, s3Scheme) {
		return "", "", false
	}
	rest := strings.TrimPrefix(uri, s3Scheme)
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", false
	}
	return bucket, key, true
}

// NewS3Client builds an S3 client from cfg.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// s3Store reads sample files from S3.
type s3Store struct {
	client *s3.Client
}

func (s *s3Store) open(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, key, ok := ParseS3URI(uri)
	if !ok || key == "" {
		return nil, fmt.Errorf("invalid s3 object uri %q", uri)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", uri, err)
	}
	return out.Body, nil
}

func (s *s3Store) stat(ctx context.Context, uri string) (FileInfo, error) {
	bucket, key, ok := ParseS3URI(uri)
	if !ok || key == "" {
		return FileInfo{}, fmt.Errorf("invalid s3 object uri %q", uri)
	}

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return FileInfo{}, fmt.Errorf("head %s: %w", uri, err)
	}
	return FileInfo{
		Path:    uri,
		Size:    aws.ToInt64(out.ContentLength),
		ModTime: aws.ToTime(out.LastModified),
	}, nil
}

// walk lists every object under the prefix whose name matches Patterns, in
// key order.
func (s *s3Store) walk(ctx context.Context, root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		bucket, prefix, ok := ParseS3URI(root)
		if !ok {
			yield("", fmt.Errorf("invalid s3 uri %q", root))
			return
		}

		pager := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
			Bucket: &bucket,
			Prefix: &prefix,
		})
		for pager.HasMorePages() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				yield("", fmt.Errorf("list %s: %w", root, err))
				return
			}
			for _, obj := range page.Contents {
				key := aws.ToString(obj.Key)
				if !MatchesPatterns(key) {
					continue
				}
				if !yield(s3Scheme+bucket+"/"+key, nil) {
					return
				}
			}
		}
	}
}

// FileInfo is the size and modification time of a sample file.
type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}
