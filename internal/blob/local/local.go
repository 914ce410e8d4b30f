// Package local implements blob.Bucket over a directory on the local disk.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"datalake/internal/blob"
)

// Bucket is a directory-backed store. It is safe for concurrent use as long
// as callers do not write and delete the same keys concurrently.
type Bucket struct{ root string }

// New returns a Bucket rooted at dir. The directory does not have to exist
// yet; it is created on the first Put.
func New(dir string) *Bucket { return &Bucket{root: filepath.Clean(dir)} }

func (b *Bucket) String() string { return b.root }

func (b *Bucket) path(key string) string {
	return filepath.Join(b.root, filepath.FromSlash(strings.TrimPrefix(key, "/")))
}

// List walks only the static prefix of pattern. A missing prefix directory
// yields no keys rather than an error.
func (b *Bucket) List(ctx context.Context, pattern string) ([]string, error) {
	m, err := blob.Compile(pattern)
	if err != nil {
		return nil, err
	}
	start := b.path(m.Prefix())

	var keys []string
	err = filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == start {
				return filepath.SkipDir
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.root, p)
		if err != nil {
			return err
		}
		if key := filepath.ToSlash(rel); m.Match(key) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s/%s: %w", b.root, pattern, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Open opens the file behind key.
func (b *Bucket) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	p := b.path(key)
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w", p, blob.ErrNotExist)
		}
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	return f, nil
}

// Put writes body to a temporary sibling and renames it into place, so a
// reader never observes a half-written object.
func (b *Bucket) Put(ctx context.Context, key string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := b.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("put %s: %w", p, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return fmt.Errorf("put %s: %w", p, err)
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("put %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("put %s: %w", p, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("put %s: %w", p, err)
	}
	return nil
}

// DeletePrefix removes the directory named by prefix. An empty prefix is
// refused so a misconfigured table name cannot wipe the whole root.
func (b *Bucket) DeletePrefix(ctx context.Context, prefix string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.Trim(prefix, "/") == "" {
		return fmt.Errorf("delete prefix: refusing to delete root %s", b.root)
	}
	p := b.path(prefix)
	if err := os.RemoveAll(p); err != nil {
		return fmt.Errorf("delete prefix %s: %w", p, err)
	}
	return nil
}

var _ blob.Bucket = (*Bucket)(nil)
