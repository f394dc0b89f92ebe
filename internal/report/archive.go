package report

import (
	"context"
	"encoding/json"
	"fmt"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/hwbench/station/pkg/api"
)

// Archiver copies run records to a bucket for off-station retention,
// supporting S3, GCS, Azure Blob Storage, and local directories
type Archiver struct {
	bucket *blob.Bucket
	prefix string
}

// NewArchiver opens the archive bucket named by bucketURL
func NewArchiver(
	ctx context.Context, bucketURL, prefix string,
) (*Archiver, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, err
	}
	return &Archiver{bucket: bucket, prefix: prefix}, nil
}

// Put archives one run record as JSON
func (a *Archiver) Put(ctx context.Context, res *api.RunResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return a.bucket.WriteAll(ctx, a.keyFor(res.ID), data, nil)
}

// Get retrieves an archived run record
func (a *Archiver) Get(
	ctx context.Context, id api.RunID,
) (*api.RunResult, error) {
	data, err := a.bucket.ReadAll(ctx, a.keyFor(id))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, err
	}

	var res api.RunResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Close releases the archive bucket
func (a *Archiver) Close() error {
	return a.bucket.Close()
}

func (a *Archiver) keyFor(id api.RunID) string {
	return a.prefix + string(id) + ".json"
}
