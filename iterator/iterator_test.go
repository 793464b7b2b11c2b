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

package iterator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audeon/audb/archive"
	"github.com/audeon/audb/audformat"
	"github.com/audeon/audb/cache"
	"github.com/audeon/audb/deptable"
	"github.com/audeon/audb/flavor"
	"github.com/audeon/audb/internal/config"
	"github.com/audeon/audb/load"
	"github.com/audeon/audb/repository"
)

const testDB = "emodb"
const testVersion = "1.0.0"

func seedRepo(t *testing.T, n int) (string, *deptable.Table) {
	t.Helper()
	root := t.TempDir()
	build := t.TempDir()

	table := deptable.New()

	versionDir := filepath.Join(root, testDB, testVersion)
	require.NoError(t, os.MkdirAll(versionDir, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, testDB, "media", testVersion), 0o755))

	for i := 0; i < n; i++ {
		rel := filepath.ToSlash(filepath.Join("wav", itoa(i)+".wav"))
		local := filepath.Join(build, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(local), 0o755))
		require.NoError(t, os.WriteFile(local, []byte("bytes-"+itoa(i)), 0o644))

		fingerprint := archive.Fingerprint(testVersion, []archive.Member{{Name: rel, Path: local}})
		archivePath := filepath.Join(build, "archive-"+itoa(i)+".zip")
		checksum, err := archive.Pack(archivePath, []archive.Member{{Name: rel, Path: local}})
		require.NoError(t, err)

		archiveBytes, err := os.ReadFile(archivePath)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(root, testDB, "media", testVersion, fingerprint+".zip"), archiveBytes, 0o644))

		require.NoError(t, table.AddMedia(rel, fingerprint, "wav", testVersion, checksum, deptable.MediaAttrs{
			BitDepth: 16, Channels: 1, SamplingRate: 16000, Duration: 1,
		}))
	}

	require.NoError(t, table.WriteParquet(filepath.Join(versionDir, "db.parquet")))
	require.NoError(t, audformat.WriteHeader(audformat.Header{Name: testDB}, filepath.Join(versionDir, "db.yaml")))

	return root, table
}

func itoa(i int) string {
	digits := "0123456789"
	if i == 0 {
		return "0"
	}
	var b []byte
	for i > 0 {
		b = append([]byte{digits[i%10]}, b...)
		i /= 10
	}
	return string(b)
}

func newPipeline(t *testing.T, root string) *load.Pipeline {
	t.Helper()
	resolver, err := repository.New(context.Background(), []config.RepositoryConfig{
		{Name: "primary", BackendKind: "file-system", Host: root},
	})
	require.NoError(t, err)

	cacheMgr := cache.New(
		config.CacheConfig{Root: t.TempDir()},
		config.LockConfig{WarnAfter: time.Second, Timeout: 10 * time.Second},
	)

	return load.New(resolver, cacheMgr, nil, config.ConcurrencyConfig{Workers: 2}, nil)
}

func TestIteratorYieldsAllRowsSequentially(t *testing.T) {
	root, table := seedRepo(t, 5)
	pipeline := newPipeline(t, root)

	it := New(context.Background(), pipeline, testDB, testVersion, flavor.Spec{}, table, Options{BatchSize: 2})
	defer it.Close()

	var seen []string
	for {
		batch, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		seen = append(seen, batch.Paths...)
		for _, p := range batch.Paths {
			_, statErr := os.Stat(filepath.Join(batch.Dir, filepath.FromSlash(p)))
			assert.NoError(t, statErr)
		}
	}
	assert.Len(t, seen, 5)
}

func TestIteratorShuffleIsDeterministicWithSeed(t *testing.T) {
	root, table := seedRepo(t, 8)
	seed := int64(42)

	order := func() []string {
		pipeline := newPipeline(t, root)
		it := New(context.Background(), pipeline, testDB, testVersion, flavor.Spec{}, table, Options{
			BatchSize: 1, BufferSize: 4, Seed: &seed,
		})
		defer it.Close()

		var out []string
		for {
			batch, ok, err := it.Next()
			require.NoError(t, err)
			if !ok {
				break
			}
			out = append(out, batch.Paths...)
		}
		return out
	}

	first := order()
	second := order()
	assert.Equal(t, first, second)
	assert.Len(t, first, 8)
}

func TestIteratorStopsAfterContextCancel(t *testing.T) {
	root, table := seedRepo(t, 3)
	pipeline := newPipeline(t, root)

	ctx, cancel := context.WithCancel(context.Background())
	it := New(ctx, pipeline, testDB, testVersion, flavor.Spec{}, table, Options{BatchSize: 1})
	cancel()

	_, ok, err := it.Next()
	assert.False(t, ok)
	assert.Error(t, err)
}
