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

// Package info implements header-level database introspection (spec.md
// §4.9): answering schema-level questions (schemes, splits, tables,
// raters, languages, duration, file counts) from db.yaml and db.parquet
// alone, without materializing any media.
//
// Grounded on the teacher's thin read-only accessor methods
// (controlplane/chunk/svc.go's GetChunk, which answers metadata
// questions about a chunk without touching its resource packs),
// generalized to a header+table fetch instead of a single database
// lookup.
package info

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/audeon/audb/audformat"
	"github.com/audeon/audb/cache"
	"github.com/audeon/audb/deptable"
	"github.com/audeon/audb/flavor"
	"github.com/audeon/audb/internal/xerrors"
	"github.com/audeon/audb/repository"
)

const (
	headerFileName = "db.yaml"
	tableFileName  = "db.parquet"
)

// Service answers info queries against a resolver-configured repository
// set, caching header/table fetches through the same cache.Manager the
// load pipeline uses.
type Service struct {
	resolver *repository.Resolver
	cache    *cache.Manager
	logger   *slog.Logger
}

// New builds an info Service.
func New(resolver *repository.Resolver, cacheMgr *cache.Manager, logger *slog.Logger) *Service {
	return &Service{resolver: resolver, cache: cacheMgr, logger: logger}
}

// Info is the set of header/table-derived facts spec.md §4.9 names.
type Info struct {
	Version   string
	Header    audformat.Header
	Schemes   []string
	Splits    []string
	Tables    []string
	Raters    []string
	Languages []string
	// FileCount and Duration are populated only when WithTable is set:
	// they require reading db.parquet, not just db.yaml.
	FileCount int
	Duration  float64
}

// Options controls what an info query fetches.
type Options struct {
	// WithTable additionally fetches db.parquet to answer
	// duration/file-count questions. Header-only questions never need it.
	WithTable bool
}

// Query resolves dbName/version, fetches (and caches) its header and,
// if requested, its dependency table, and returns the header-level facts
// derived from them.
func (s *Service) Query(ctx context.Context, dbName, version string, opts Options) (*Info, error) {
	repo, resolved, err := s.resolver.Repository(ctx, dbName, version)
	if err != nil {
		return nil, err
	}

	// header and table are cached under the same flavor-agnostic
	// directory load's original fetch uses (flavor.DefaultFlavorID), so
	// an info query issued before or after a Load of the same version
	// reuses the same cached files instead of fetching twice.
	dir := s.cache.WriteDir(flavor.DefaultFlavorID, resolved)
	lock, err := s.cache.AcquireLock(dir, s.warnFunc(dbName, resolved))
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	headerPath, err := s.fetchIfMissing(ctx, repo, repository.HeaderKey(dbName, resolved), dir, headerFileName)
	if err != nil {
		return nil, err
	}
	header, err := audformat.ReadHeader(headerPath)
	if err != nil {
		return nil, err
	}

	result := &Info{
		Version:   resolved,
		Header:    header,
		Schemes:   header.Schemes,
		Splits:    header.Splits,
		Tables:    header.Tables,
		Raters:    header.Raters,
		Languages: header.Languages,
	}

	if opts.WithTable {
		tablePath, err := s.fetchIfMissing(ctx, repo, repository.TableKey(dbName, resolved), dir, tableFileName)
		if err != nil {
			return nil, err
		}
		table, err := deptable.Read(tablePath)
		if err != nil {
			return nil, err
		}
		result.FileCount, result.Duration = summarize(table)
	}

	return result, nil
}

func summarize(table *deptable.Table) (count int, duration float64) {
	for _, path := range table.Media() {
		removed, err := table.IsRemoved(path)
		if err != nil || removed {
			continue
		}
		count++
		if d, err := table.Duration(path); err == nil {
			duration += d
		}
	}
	return count, duration
}

func (s *Service) fetchIfMissing(ctx context.Context, repo repository.Repository, key, dir, fileName string) (string, error) {
	path := filepath.Join(dir, fileName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", xerrors.Wrap(xerrors.KindIO, "creating info cache directory", err)
	}

	f, err := os.CreateTemp(dir, "."+fileName+"-*.tmp")
	if err != nil {
		return "", xerrors.Wrap(xerrors.KindIO, "creating temp file for info fetch", err)
	}
	tmpPath := f.Name()

	if err := repo.Backend.Get(ctx, key, f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", xerrors.Wrap(xerrors.KindIO, "closing info fetch temp file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", xerrors.Wrap(xerrors.KindIO, "publishing info fetch result", err)
	}
	return path, nil
}

func (s *Service) warnFunc(dbName, version string) func(waited time.Duration) {
	return func(waited time.Duration) {
		if s.logger == nil {
			return
		}
		s.logger.Warn("waiting for cache lock", "db", dbName, "version", version, "waited", waited)
	}
}
