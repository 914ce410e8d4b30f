// Package s3 implements blob.Bucket over an S3 bucket prefix with the AWS
// SDK. Credentials are passed explicitly through Config and never read from
// or written to the process environment by this package.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"datalake/internal/blob"
)

// deleteBatch is the S3 DeleteObjects per-request key limit.
const deleteBatch = 1000

// Config carries the connection settings for one S3 endpoint.
type Config struct {
	Region          string
	Endpoint        string // optional, for S3-compatible stores
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	ForcePathStyle  bool
}

// Bucket is a prefix inside one S3 bucket.
type Bucket struct {
	api    s3iface.S3API
	bucket string
	prefix string
}

// New opens a session from cfg. With empty keys the SDK's default
// credential chain applies.
func New(cfg Config, bucket, prefix string) (*Bucket, error) {
	awsCfg := aws.NewConfig()
	if cfg.Region != "" {
		awsCfg = awsCfg.WithRegion(cfg.Region)
	}
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint)
	}
	if cfg.ForcePathStyle {
		awsCfg = awsCfg.WithS3ForcePathStyle(true)
	}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		awsCfg = awsCfg.WithCredentials(credentials.NewStaticCredentials(
			cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken))
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("s3: new session: %w", err)
	}
	return NewWithClient(s3.New(sess), bucket, prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(api s3iface.S3API, bucket, prefix string) *Bucket {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Bucket{api: api, bucket: bucket, prefix: prefix}
}

func (b *Bucket) String() string { return "s3://" + b.bucket + "/" + b.prefix }

func (b *Bucket) key(k string) string { return b.prefix + strings.TrimPrefix(k, "/") }

// listAll pages through every object under the absolute key prefix p.
func (b *Bucket) listAll(ctx context.Context, p string, fn func(key string)) error {
	in := &s3.ListObjectsV2Input{Bucket: aws.String(b.bucket), Prefix: aws.String(p)}
	return b.api.ListObjectsV2PagesWithContext(ctx, in, func(out *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range out.Contents {
			if k := aws.StringValue(obj.Key); k != "" && !strings.HasSuffix(k, "/") {
				fn(k)
			}
		}
		return true
	})
}

// List lists the static prefix of pattern and filters the rest client-side.
func (b *Bucket) List(ctx context.Context, pattern string) ([]string, error) {
	m, err := blob.Compile(pattern)
	if err != nil {
		return nil, err
	}
	var keys []string
	err = b.listAll(ctx, b.key(m.Prefix()), func(k string) {
		if rel := strings.TrimPrefix(k, b.prefix); m.Match(rel) {
			keys = append(keys, rel)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("s3: list %s%s: %w", b, pattern, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Open returns the object body; callers must close it.
func (b *Bucket) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := b.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(key)),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, fmt.Errorf("s3: get %s: %w", b.key(key), blob.ErrNotExist)
		}
		return nil, fmt.Errorf("s3: get %s: %w", b.key(key), err)
	}
	return out.Body, nil
}

// Put uploads body in a single request.
func (b *Bucket) Put(ctx context.Context, key string, body []byte) error {
	_, err := b.api.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(key)),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return fmt.Errorf("s3: put %s: %w", b.key(key), err)
	}
	return nil
}

// DeletePrefix lists then batch-deletes every object under prefix.
func (b *Bucket) DeletePrefix(ctx context.Context, prefix string) error {
	if strings.Trim(prefix, "/") == "" {
		return fmt.Errorf("s3: delete prefix: refusing to delete root %s", b)
	}
	var ids []*s3.ObjectIdentifier
	if err := b.listAll(ctx, b.key(prefix), func(k string) {
		ids = append(ids, &s3.ObjectIdentifier{Key: aws.String(k)})
	}); err != nil {
		return fmt.Errorf("s3: delete prefix %s: %w", b.key(prefix), err)
	}
	for len(ids) > 0 {
		n := min(len(ids), deleteBatch)
		out, err := b.api.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(b.bucket),
			Delete: &s3.Delete{Objects: ids[:n], Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("s3: delete prefix %s: %w", b.key(prefix), err)
		}
		if len(out.Errors) > 0 {
			e := out.Errors[0]
			return fmt.Errorf("s3: delete %s: %s", aws.StringValue(e.Key), aws.StringValue(e.Message))
		}
		ids = ids[n:]
	}
	return nil
}

var _ blob.Bucket = (*Bucket)(nil)
