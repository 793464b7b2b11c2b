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
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audeon/audb/internal/xerrors"
)

const testBucket = "audb-test"

// newFakeS3 starts an in-memory S3-compatible server for the duration of
// the test, grounded on the teacher's test/fixture/s3.go RunFakeS3
// helper (gofakes3 + s3mem), adapted to run per-test via httptest
// instead of a fixed port so tests can run in parallel.
func newFakeS3(t *testing.T) *S3 {
	t.Helper()

	faker := gofakes3.New(s3mem.New(), gofakes3.WithAutoBucket(true))
	server := httptest.NewServer(faker.Server())
	t.Cleanup(server.Close)

	ctx := context.Background()
	cfg, err := awscfg.LoadDefaultConfig(ctx,
		awscfg.WithRegion("us-east-1"),
		awscfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("key", "secret", "")),
	)
	require.NoError(t, err)

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = &server.URL
		o.UsePathStyle = true
	})

	return NewS3(client, testBucket)
}

func TestS3Backend(t *testing.T) {
	ctx := context.Background()
	b := newFakeS3(t)

	exists, err := b.Exists(ctx, "db/1.0.0/db.parquet")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, b.Put(ctx, "db/1.0.0/db.parquet", bytes.NewReader([]byte("hello")), 5))

	exists, err = b.Exists(ctx, "db/1.0.0/db.parquet")
	require.NoError(t, err)
	assert.True(t, exists)

	var buf bytes.Buffer
	require.NoError(t, b.Get(ctx, "db/1.0.0/db.parquet", &buf))
	assert.Equal(t, "hello", buf.String())

	keys, err := b.List(ctx, "db/")
	require.NoError(t, err)
	assert.Contains(t, keys, "db/1.0.0/db.parquet")

	require.NoError(t, b.Delete(ctx, "db/1.0.0/db.parquet"))

	exists, err = b.Exists(ctx, "db/1.0.0/db.parquet")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestS3BackendGetMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	b := newFakeS3(t)

	var buf bytes.Buffer
	err := b.Get(ctx, "missing", &buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, xerrors.NotFound))
}
