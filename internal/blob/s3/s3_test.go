package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"reflect"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"datalake/internal/blob"
)

// fakeS3 keeps objects in memory and pages listings two keys at a time.
type fakeS3 struct {
	s3iface.S3API

	mu      sync.Mutex
	objects map[string][]byte
	deletes int
}

func newFake(keys ...string) *fakeS3 {
	f := &fakeS3{objects: map[string][]byte{}}
	for _, k := range keys {
		f.objects[k] = []byte(k)
	}
	return f
}

func (f *fakeS3) ListObjectsV2PagesWithContext(_ aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	f.mu.Lock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.StringValue(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	f.mu.Unlock()
	sort.Strings(keys)
	for i := 0; i < len(keys) || i == 0; i += 2 {
		page := &s3.ListObjectsV2Output{}
		for _, k := range keys[i:min(i+2, len(keys))] {
			page.Contents = append(page.Contents, &s3.Object{Key: aws.String(k)})
		}
		last := i+2 >= len(keys)
		if !fn(page, last) || last {
			break
		}
	}
	return nil
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "no such key", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.StringValue(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjectsWithContext(_ aws.Context, in *s3.DeleteObjectsInput, _ ...request.Option) (*s3.DeleteObjectsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	for _, id := range in.Delete.Objects {
		delete(f.objects, aws.StringValue(id.Key))
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func TestBucket_ListStripsBasePrefix(t *testing.T) {
	t.Parallel()

	fake := newFake(
		"raw/log_data/2018/11/2018-11-01-events.json",
		"raw/log_data/2018/11/2018-11-02-events.json",
		"raw/log_data/2018/11/",
		"raw/log_data/2018/11/nested/x.json",
		"raw/song_data/A/A/A/TRAAAAW128F429D538.json",
		"other/log_data/2018/11/2018-11-03-events.json",
	)
	b := NewWithClient(fake, "udacity-dend", "/raw/")

	got, err := b.List(context.Background(), "log_data/*/*/*.json")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{
		"log_data/2018/11/2018-11-01-events.json",
		"log_data/2018/11/2018-11-02-events.json",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
}

func TestBucket_PutOpenDelete(t *testing.T) {
	t.Parallel()

	fake := newFake()
	b := NewWithClient(fake, "lake", "out")
	ctx := context.Background()

	for _, k := range []string{"time/year=2018/month=11/part-00000.parquet", "time/year=2018/month=12/part-00000.parquet", "users/part-00000.parquet"} {
		if err := b.Put(ctx, k, []byte("data")); err != nil {
			t.Fatalf("Put(%s) error = %v", k, err)
		}
	}
	if _, ok := fake.objects["out/users/part-00000.parquet"]; !ok {
		t.Fatalf("Put did not apply base prefix: %v", fake.objects)
	}

	rc, err := b.Open(ctx, "users/part-00000.parquet")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != "data" {
		t.Fatalf("body = %q", body)
	}

	if err := b.DeletePrefix(ctx, "time/"); err != nil {
		t.Fatalf("DeletePrefix() error = %v", err)
	}
	if len(fake.objects) != 1 {
		t.Fatalf("objects after delete = %v, want only users", fake.objects)
	}
	if _, err := b.Open(ctx, "time/year=2018/month=11/part-00000.parquet"); !errors.Is(err, blob.ErrNotExist) {
		t.Fatalf("Open() error = %v, want ErrNotExist", err)
	}
	if err := b.DeletePrefix(ctx, ""); err == nil {
		t.Fatalf("DeletePrefix(root) error = nil")
	}
}
