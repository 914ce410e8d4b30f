// Package store opens the blob.Bucket implementation matching a location URI.
package store

import (
	"datalake/internal/blob"
	"datalake/internal/blob/local"
	"datalake/internal/blob/s3"
)

// Open parses uri and returns a local or S3 bucket rooted at it. s3cfg is
// only consulted for S3 locations.
func Open(uri string, s3cfg s3.Config) (blob.Bucket, error) {
	loc, err := blob.ParseLocation(uri)
	if err != nil {
		return nil, err
	}
	if loc.IsS3() {
		return s3.New(s3cfg, loc.Bucket, loc.Path)
	}
	return local.New(loc.Path), nil
}
