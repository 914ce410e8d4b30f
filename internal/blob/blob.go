// Package blob abstracts the flat key/value object layouts the job reads raw
// files from and writes lake tables to: a local directory tree or an S3
// bucket prefix. Keys are always '/'-separated and relative to the bucket
// root the store was opened at.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

// ErrNotExist is wrapped by Open when a key does not exist.
var ErrNotExist = errors.New("blob: object does not exist")

// Bucket is a keyed object store rooted at some base location.
type Bucket interface {
	// List returns the keys matching pattern, sorted ascending.
	List(ctx context.Context, pattern string) ([]string, error)
	// Open streams one object.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Put creates or replaces one object.
	Put(ctx context.Context, key string, body []byte) error
	// DeletePrefix removes every object whose key starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	// String describes the base location, for logs.
	String() string
}

// Location is a parsed base URI.
type Location struct {
	Scheme string // "file" or "s3"
	Bucket string // s3 only
	Path   string // local directory, or key prefix inside the bucket
}

// IsS3 reports whether the location is an S3 prefix.
func (l Location) IsS3() bool { return l.Scheme == "s3" }

func (l Location) String() string {
	if l.IsS3() {
		return "s3://" + l.Bucket + "/" + l.Path
	}
	return l.Path
}

// ParseLocation accepts s3://, s3a:// and s3n:// URIs (all mapped to "s3"),
// file:// URIs and bare filesystem paths.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("blob: empty location")
	}
	if !strings.Contains(raw, "://") {
		return Location{Scheme: "file", Path: raw}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("blob: parse %q: %w", raw, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "s3", "s3a", "s3n":
		if u.Host == "" {
			return Location{}, fmt.Errorf("blob: %q has no bucket", raw)
		}
		return Location{Scheme: "s3", Bucket: u.Host, Path: strings.Trim(u.Path, "/")}, nil
	case "file":
		return Location{Scheme: "file", Path: u.Path}, nil
	default:
		return Location{}, fmt.Errorf("blob: unsupported scheme %q", u.Scheme)
	}
}

// Matcher is a compiled key pattern. '*' and '?' never cross a '/'.
type Matcher struct {
	g      glob.Glob
	prefix string
}

// Compile compiles a glob pattern such as "song_data/*/*/*/*.json".
func Compile(pattern string) (*Matcher, error) {
	pattern = strings.TrimPrefix(pattern, "/")
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("blob: compile pattern %q: %w", pattern, err)
	}
	return &Matcher{g: g, prefix: StaticPrefix(pattern)}, nil
}

// Match reports whether key matches.
func (m *Matcher) Match(key string) bool { return m.g.Match(key) }

// Prefix is the longest directory prefix shared by every possible match. It
// bounds the listing a store has to do.
func (m *Matcher) Prefix() string { return m.prefix }

// StaticPrefix returns the directory part of pattern preceding its first
// wildcard, including the trailing '/'.
func StaticPrefix(pattern string) string {
	i := strings.IndexAny(pattern, `*?[{\`)
	if i < 0 {
		i = len(pattern)
	}
	j := strings.LastIndexByte(pattern[:i], '/')
	if j < 0 {
		return ""
	}
	return pattern[:j+1]
}

// Join joins key segments with '/', dropping empty ones.
func Join(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}
