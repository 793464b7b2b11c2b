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

package info

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audeon/audb/audformat"
	"github.com/audeon/audb/deptable"
	"github.com/audeon/audb/cache"
	"github.com/audeon/audb/internal/config"
	"github.com/audeon/audb/repository"
)

const testDB = "emodb"
const testVersion = "1.0.0"

func seedRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	versionDir := filepath.Join(root, testDB, testVersion)
	require.NoError(t, os.MkdirAll(versionDir, 0o755))

	table := deptable.New()
	require.NoError(t, table.AddMedia("wav/1.wav", "fingerprint-1", "wav", testVersion, "checksum-1", deptable.MediaAttrs{
		BitDepth: 16, Channels: 1, SamplingRate: 16000, Duration: 1.5,
	}))
	require.NoError(t, table.AddMedia("wav/2.wav", "fingerprint-2", "wav", testVersion, "checksum-2", deptable.MediaAttrs{
		BitDepth: 16, Channels: 1, SamplingRate: 16000, Duration: 2.5,
	}))
	require.NoError(t, table.Remove("wav/2.wav"))
	require.NoError(t, table.WriteParquet(filepath.Join(versionDir, "db.parquet")))

	require.NoError(t, audformat.WriteHeader(audformat.Header{
		Name:    testDB,
		Schemes: []string{"emotion"},
		Splits:  []string{"train", "test"},
		Tables:  []string{"emotion.categories"},
	}, filepath.Join(versionDir, "db.yaml")))

	return root
}

func newService(t *testing.T, root string) *Service {
	t.Helper()
	resolver, err := repository.New(context.Background(), []config.RepositoryConfig{
		{Name: "primary", BackendKind: "file-system", Host: root},
	})
	require.NoError(t, err)

	cacheMgr := cache.New(
		config.CacheConfig{Root: t.TempDir()},
		config.LockConfig{WarnAfter: time.Second, Timeout: 10 * time.Second},
	)

	return New(resolver, cacheMgr, nil)
}

func TestQueryHeaderOnlyDoesNotFetchTable(t *testing.T) {
	root := seedRepo(t)
	svc := newService(t, root)

	result, err := svc.Query(context.Background(), testDB, testVersion, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"emotion"}, result.Schemes)
	assert.Equal(t, []string{"train", "test"}, result.Splits)
	assert.Zero(t, result.FileCount)
	assert.Zero(t, result.Duration)
}

func TestQueryWithTableSummarizesExcludingRemoved(t *testing.T) {
	root := seedRepo(t)
	svc := newService(t, root)

	result, err := svc.Query(context.Background(), testDB, testVersion, Options{WithTable: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.FileCount)
	assert.InDelta(t, 1.5, result.Duration, 0.001)
}

func TestQueryResolvesLatest(t *testing.T) {
	root := seedRepo(t)
	svc := newService(t, root)

	result, err := svc.Query(context.Background(), testDB, "latest", Options{})
	require.NoError(t, err)
	assert.Equal(t, testVersion, result.Version)
}
