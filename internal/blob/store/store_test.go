package store

import (
	"strings"
	"testing"

	"datalake/internal/blob/local"
	"datalake/internal/blob/s3"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	b, err := Open(dir, s3.Config{})
	if err != nil {
		t.Fatalf("Open(local) error = %v", err)
	}
	if _, ok := b.(*local.Bucket); !ok {
		t.Fatalf("Open(local) = %T, want *local.Bucket", b)
	}

	b, err = Open("s3a://udacity-dend/out", s3.Config{Region: "us-west-2", AccessKeyID: "AKIA", SecretAccessKey: "secret"})
	if err != nil {
		t.Fatalf("Open(s3a) error = %v", err)
	}
	if !strings.HasPrefix(b.String(), "s3://udacity-dend/out/") {
		t.Fatalf("Open(s3a).String() = %q", b.String())
	}

	if _, err := Open("ftp://x/y", s3.Config{}); err == nil {
		t.Fatalf("Open(ftp) error = nil")
	}
}
