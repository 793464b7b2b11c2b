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
	"io"

	"github.com/minio/minio-go/v7"

	"github.com/audeon/audb/internal/xerrors"
)

// MinIO is a Backend for MinIO and other S3-compatible object stores
// that need path-style addressing or self-signed TLS, which is why the
// pack carries minio-go alongside the AWS SDK rather than pointing the
// S3 backend at a custom endpoint: minio-go's client is built for
// exactly this deployment shape.
type MinIO struct {
	client *minio.Client
	bucket string
}

// NewMinIO wraps a *minio.Client for bucket.
func NewMinIO(client *minio.Client, bucket string) *MinIO {
	return &MinIO{client: client, bucket: bucket}
}

func (b *MinIO) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if errResp := minio.ToErrorResponse(err); errResp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, xerrors.Wrap(xerrors.KindNetwork, "minio stat object", err)
	}
	return true, nil
}

func (b *MinIO) Get(ctx context.Context, key string, w io.Writer) error {
	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return xerrors.Wrap(xerrors.KindNetwork, "minio get object", err)
	}
	defer obj.Close()

	if _, err := io.Copy(w, obj); err != nil {
		if errResp := minio.ToErrorResponse(err); errResp.Code == "NoSuchKey" {
			return xerrors.New(xerrors.KindNotFound, "key not found: "+key)
		}
		return xerrors.Wrap(xerrors.KindNetwork, "minio read object", err)
	}
	return nil
}

func (b *MinIO) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	if _, err := b.client.PutObject(ctx, b.bucket, key, r, size, minio.PutObjectOptions{}); err != nil {
		return xerrors.Wrap(xerrors.KindNetwork, "minio put object", err)
	}
	return nil
}

func (b *MinIO) List(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	for obj := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, xerrors.Wrap(xerrors.KindNetwork, "minio list objects", obj.Err)
		}
		out = append(out, obj.Key)
	}
	return out, nil
}

func (b *MinIO) Delete(ctx context.Context, key string) error {
	if err := b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return xerrors.Wrap(xerrors.KindNetwork, "minio delete object", err)
	}
	return nil
}
