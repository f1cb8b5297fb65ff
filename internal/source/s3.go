package source

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config locates a bucket of an S3 compatible object store.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	// Prefix is prepended to every name; it is normally a "directory"
	// ending in a slash.
	Prefix string
	UseSSL bool
}

// S3 is a Source reading objects under a prefix of a bucket.
type S3 struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewS3 returns a Source over the bucket described by cfg. No request is
// made until the source is used.
func NewS3(cfg S3Config) (*S3, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	opts := &minio.Options{Secure: cfg.UseSSL, Region: region}
	access, secret := strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey)
	if access != "" || secret != "" {
		opts.Creds = credentials.NewStaticV4(access, secret, "")
	} else {
		opts.Creds = credentials.NewEnvAWS()
	}
	client, err := minio.New(endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3{client: client, bucket: bucket, prefix: cfg.Prefix}, nil
}

// List implements Source.
func (s *S3) List(ctx context.Context, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", ErrBadPattern, pattern)
	}
	var names []string
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix + staticPrefix(pattern),
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", s.bucket, s.prefix, obj.Err)
		}
		name, ok := strings.CutPrefix(obj.Key, s.prefix)
		if !ok || name == "" || strings.HasSuffix(name, "/") {
			continue
		}
		if match, _ := doublestar.Match(pattern, name); match {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Open implements Source. A missing object is reported as fs.ErrNotExist.
func (s *S3) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := s.prefix + name
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces a missing key before reading
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
		}
		return nil, err
	}
	return obj, nil
}

// staticPrefix returns the part of pattern before its first meta
// character, cut back to a whole path segment, so listings only walk the
// keys that can match.
func staticPrefix(pattern string) string {
	i := strings.IndexAny(pattern, `*?[{\`)
	if i < 0 {
		return pattern
	}
	return pattern[:strings.LastIndex(pattern[:i], "/")+1]
}
