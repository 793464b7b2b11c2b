/*
 audb, a versioned, content-addressed database manager for annotated
 media corpora.
 Copyright (C) 2026 audb contributors

 This program is free software: you can redistribute it and/or modify
 it under the terms of the GNU Affero General Public License as published by
 the Free Software Foundation, either version 3 of the License, or
 (at your option) any later version.

 This program is distributed in the hope that it will be useful,
 but WITHOUT ANY WARRANTY; without even the implied warranty of
 MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 GNU Affero General Public License for more details.

 You should have received a copy of the GNU Affero General Public License
 along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package backend

import (
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/audeon/audb/internal/xerrors"
)

// S3 is a Backend backed by Amazon S3, grounded on the teacher's
// controlplane/blob.S3ObjectStore (ObjectExists/WriteTo/Put pattern),
// generalized from a fixed bucket-of-hashed-blobs shape to arbitrary
// keys and extended with List/Delete for version enumeration (spec.md
// §4.3's `ls_versions`) and republish cleanup.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
}

// NewS3 wraps an *s3.Client for bucket.
func NewS3(client *s3.Client, bucket string) *S3 {
	return &S3{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
	}
}

func (b *S3) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &b.bucket,
		Key:    &key,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey") {
			return false, nil
		}
		return false, xerrors.Wrap(xerrors.KindNetwork, "s3 head object", err)
	}
	return true, nil
}

func (b *S3) Get(ctx context.Context, key string, w io.Writer) error {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &b.bucket,
		Key:    &key,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound") {
			return xerrors.New(xerrors.KindNotFound, "key not found: "+key)
		}
		return xerrors.Wrap(xerrors.KindNetwork, "s3 get object", err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return xerrors.Wrap(xerrors.KindNetwork, "s3 read object body", err)
	}
	return nil
}

func (b *S3) Put(ctx context.Context, key string, r io.Reader, _ int64) error {
	if _, err := b.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: &b.bucket,
		Key:    &key,
		Body:   r,
	}); err != nil {
		return xerrors.Wrap(xerrors.KindNetwork, "s3 upload", err)
	}
	return nil
}

func (b *S3) List(ctx context.Context, prefix string) ([]string, error) {
	var out []string

	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: &b.bucket,
		Prefix: &prefix,
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.KindNetwork, "s3 list objects", err)
		}
		for _, obj := range page.Contents {
			out = append(out, aws.ToString(obj.Key))
		}
	}
	return out, nil
}

func (b *S3) Delete(ctx context.Context, key string) error {
	if _, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &b.bucket,
		Key:    &key,
	}); err != nil {
		return xerrors.Wrap(xerrors.KindNetwork, "s3 delete object", err)
	}
	return nil
}
