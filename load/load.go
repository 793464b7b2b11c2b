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

// Package load implements the load pipeline (spec.md §4.7): resolving a
// requested database version, materializing its dependency table and
// media into the local cache, and handing back a ready-to-use
// directory.
//
// Grounded on the teacher's diff-then-act client flow (cli/cmd/publish:
// plan.go's newPlan / publish.go's fileDiff) for the plan stage, and on
// controlplane/worker/create_resource_pack.go's fetch-then-unpack shape
// for the archive stage, generalized from a single fixed base pack to a
// bounded pool of archive fetches (alitto/pond) with retry/backoff
// (cenkalti/backoff/v4), neither of which the teacher needed for its one
// resource pack per build.
package load

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alitto/pond"
	"github.com/cenkalti/backoff/v4"

	"github.com/audeon/audb/archive"
	"github.com/audeon/audb/audformat"
	"github.com/audeon/audb/cache"
	"github.com/audeon/audb/deptable"
	"github.com/audeon/audb/flavor"
	"github.com/audeon/audb/internal/config"
	"github.com/audeon/audb/internal/xerrors"
	"github.com/audeon/audb/progress"
	"github.com/audeon/audb/repository"
	"github.com/audeon/audb/transform"
)

const (
	headerFileName = "db.yaml"
	tableFileName  = "db.parquet"
)

// Options controls the scope and behavior of a single Load call.
type Options struct {
	// Tables restricts the load to this subset of paths. Empty means
	// every non-removed path in the dependency table (spec.md §4.7
	// "plan").
	Tables []string
	// IncludeRemoved loads tombstoned rows too, instead of excluding
	// them (spec.md §4.7: "tombstones are excluded from the plan unless
	// the caller asks for them explicitly").
	IncludeRemoved bool
	Progress       progress.Reporter
}

// Result is a successfully (possibly partially) materialized load.
type Result struct {
	Dir     string
	Version string
	Table   *deptable.Table
	Header  audformat.Header
	// Err is a *xerrors.LoadError naming any scope files that could not
	// be materialized. A non-nil Result is still usable for every path
	// not named in Err.
	Err error
}

// Pipeline runs loads against a resolver-configured set of repositories.
type Pipeline struct {
	resolver    *repository.Resolver
	cache       *cache.Manager
	transformer transform.Transformer
	cfg         config.ConcurrencyConfig
	logger      *slog.Logger
}

// New builds a load Pipeline.
func New(resolver *repository.Resolver, cacheMgr *cache.Manager, transformer transform.Transformer, cfg config.ConcurrencyConfig, logger *slog.Logger) *Pipeline {
	if transformer == nil {
		transformer = transform.PassThrough{}
	}
	return &Pipeline{resolver: resolver, cache: cacheMgr, transformer: transformer, cfg: cfg, logger: logger}
}

// Load resolves dbName/version, fetches whatever is missing from the
// local cache, applies spec's transform, and returns the directory the
// caller should read from.
//
// Stages (spec.md §4.7): resolve, lock, fetch header+table, plan,
// cross-version reuse scan, bounded archive fetch with retry, transform,
// finalize.
func (p *Pipeline) Load(ctx context.Context, dbName, version string, spec flavor.Spec, opts Options) (*Result, error) {
	return p.run(ctx, dbName, version, spec, opts, true)
}

// Prefetch materializes only paths (e.g. the rows one iterator batch
// needs) without ever marking the flavor directory complete, since a
// partial fetch must not make a later, full Load believe the whole
// version is already cached (spec.md §4.10: iterator fetches on
// demand, independent of the all-or-nothing completion marker Load
// relies on).
func (p *Pipeline) Prefetch(ctx context.Context, dbName, version string, spec flavor.Spec, paths []string) (*Result, error) {
	return p.run(ctx, dbName, version, spec, Options{Tables: paths, IncludeRemoved: true}, false)
}

func (p *Pipeline) run(ctx context.Context, dbName, version string, spec flavor.Spec, opts Options, markComplete bool) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	reporter := opts.Progress
	if reporter == nil {
		reporter = progress.Discard
	}

	// resolve
	repo, resolvedVersion, err := p.resolver.Repository(ctx, dbName, version)
	if err != nil {
		return nil, err
	}
	reporter.Report(progress.Event{Stage: "resolve", Item: dbName + "@" + resolvedVersion, Done: 1, Total: 1})

	// original-content cache directory, shared across every flavor of
	// this version.
	originalDir := p.cache.WriteDir(flavor.DefaultFlavorID, resolvedVersion)
	originalLock, err := p.cache.AcquireLock(originalDir, p.warnFunc(dbName, resolvedVersion))
	if err != nil {
		return nil, err
	}
	defer originalLock.Unlock()

	// fetch header+table (skip if a local copy already exists: spec.md
	// §4.3 versions are immutable once published, so a cached header or
	// table can never go stale under the caller).
	headerPath := filepath.Join(originalDir, headerFileName)
	tablePath := filepath.Join(originalDir, tableFileName)

	if err := p.fetchIfMissing(ctx, repo, repository.HeaderKey(dbName, resolvedVersion), headerPath); err != nil {
		return nil, err
	}
	if err := p.fetchIfMissing(ctx, repo, repository.TableKey(dbName, resolvedVersion), tablePath); err != nil {
		return nil, err
	}
	reporter.Report(progress.Event{Stage: "fetch-header", Done: 1, Total: 1})

	table, err := deptable.Read(tablePath)
	if err != nil {
		return nil, err
	}
	header, err := audformat.ReadHeader(headerPath)
	if err != nil {
		return nil, err
	}

	// plan
	scope := planScope(table, opts)
	reporter.Report(progress.Event{Stage: "plan", Done: len(scope), Total: len(scope)})

	failures := p.materializeOriginal(ctx, repo, dbName, table, originalDir, scope, reporter)

	if spec.IsOriginal() {
		if markComplete && len(failures) == 0 {
			if err := p.cache.MarkComplete(originalDir); err != nil {
				return nil, err
			}
		}
		return &Result{
			Dir:     originalDir,
			Version: resolvedVersion,
			Table:   table,
			Header:  header,
			Err:     xerrorsOrNil(failures),
		}, nil
	}

	// flavor transform: only materialized paths transform cleanly, so
	// failures from the original fetch carry over untouched.
	flavorDir := p.cache.WriteDir(spec.ID(), resolvedVersion)
	flavorLock, err := p.cache.AcquireLock(flavorDir, p.warnFunc(dbName, resolvedVersion))
	if err != nil {
		return nil, err
	}
	defer flavorLock.Unlock()

	transformFailures := p.transformScope(ctx, spec, table, originalDir, flavorDir, scope, failures, reporter)
	for path, err := range transformFailures {
		failures[path] = err
	}

	if markComplete && len(failures) == 0 {
		if err := p.cache.MarkComplete(flavorDir); err != nil {
			return nil, err
		}
	}

	return &Result{
		Dir:     flavorDir,
		Version: resolvedVersion,
		Table:   table,
		Header:  header,
		Err:     xerrorsOrNil(failures),
	}, nil
}

func (p *Pipeline) warnFunc(dbName, version string) func(time.Duration) {
	return func(waited time.Duration) {
		if p.logger != nil {
			p.logger.Warn("still waiting for cache lock", "db", dbName, "version", version, "waited", waited)
		}
	}
}

func xerrorsOrNil(failures map[string]error) error {
	if le := xerrors.NewLoadError(failures); le != nil {
		return le
	}
	return nil
}

// planScope resolves the set of paths a Load call actually needs,
// honoring opts.Tables and the tombstone-exclusion rule (spec.md §4.7).
func planScope(table *deptable.Table, opts Options) []string {
	var candidates []string
	if len(opts.Tables) > 0 {
		candidates = opts.Tables
	} else {
		candidates = table.Files()
	}

	out := make([]string, 0, len(candidates))
	for _, path := range candidates {
		if !table.Contains(path) {
			continue
		}
		removed, _ := table.IsRemoved(path)
		if removed && !opts.IncludeRemoved {
			continue
		}
		out = append(out, path)
	}
	return out
}

func (p *Pipeline) fetchIfMissing(ctx context.Context, repo repository.Repository, key, destPath string) error {
	if _, err := os.Stat(destPath); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return xerrors.Wrap(xerrors.KindIO, "creating cache directory", err)
	}
	return p.fetchWithRetry(ctx, repo, key, destPath)
}

// fetchWithRetry downloads key to destPath, retrying transport failures
// with exponential backoff bounded by cfg.RetryAttempts/RetryBaseDelay/
// RetryMaxDelay (spec.md §4.7: "retried up to 3 times", base 1s, factor
// 2, capped at 30s — the defaults config.SetDefaults fills in). Each
// attempt is itself bounded by cfg.RequestTimeout.
func (p *Pipeline) fetchWithRetry(ctx context.Context, repo repository.Repository, key, destPath string) error {
	op := func() error {
		f, err := os.OpenFile(destPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return backoff.Permanent(xerrors.Wrap(xerrors.KindIO, "opening destination file", err))
		}
		defer f.Close()

		attemptCtx := ctx
		if p.cfg.RequestTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, p.cfg.RequestTimeout)
			defer cancel()
		}

		if err := repo.Backend.Get(attemptCtx, key, f); err != nil {
			if kind, ok := xerrors.Of(err); ok && kind != xerrors.KindNetwork {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	retries := p.cfg.RetryAttempts
	if retries <= 0 {
		retries = 3
	}
	baseDelay := p.cfg.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	maxDelay := p.cfg.RetryMaxDelay
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = baseDelay
	b.Multiplier = 2
	b.MaxInterval = maxDelay
	bctx := backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)

	if err := backoff.Retry(op, bctx); err != nil {
		return xerrors.Wrap(xerrors.KindNetwork, fmt.Sprintf("fetching %s after retries", key), err)
	}
	return nil
}

// materializeOriginal fetches and unpacks every archive scope needs into
// originalDir, reusing cross-version cached files by hard link where
// possible, bounded by a worker pool. It returns a map of path->error for
// any scope path that could not be materialized.
func (p *Pipeline) materializeOriginal(ctx context.Context, repo repository.Repository, dbName string, table *deptable.Table, originalDir string, scope []string, reporter progress.Reporter) map[string]error {
	missing := make([]string, 0, len(scope))
	for _, path := range scope {
		if p.reuseFromSiblingVersion(table, originalDir, path) {
			continue
		}
		if _, err := os.Stat(filepath.Join(originalDir, filepath.FromSlash(path))); err == nil {
			continue
		}
		missing = append(missing, path)
	}

	archives := archivesFor(table, missing)
	failures := make(map[string]error)
	if len(archives) == 0 {
		return failures
	}

	workers := p.cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	pool := pond.New(workers, len(archives))

	var mu sync.Mutex
	done := 0

	for _, archiveID := range archives {
		archiveID := archiveID
		paths := table.PathsInArchive(archiveID)

		pool.Submit(func() {
			if err := p.fetchAndUnpackArchive(ctx, repo, dbName, table, archiveID, originalDir); err != nil {
				mu.Lock()
				for _, path := range paths {
					failures[path] = err
				}
				mu.Unlock()
				return
			}
			mu.Lock()
			done++
			n := done
			mu.Unlock()
			reporter.Report(progress.Event{Stage: "fetch", Item: archiveID, Done: n, Total: len(archives)})
		})
	}

	pool.StopAndWait()
	return failures
}

func archivesFor(table *deptable.Table, paths []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, path := range paths {
		a, err := table.Archive(path)
		if err != nil || a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

func (p *Pipeline) fetchAndUnpackArchive(ctx context.Context, repo repository.Repository, dbName string, table *deptable.Table, archiveID, destDir string) error {
	if p.cfg.ArchiveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.ArchiveTimeout)
		defer cancel()
	}

	kind, err := table.ArchiveKind(archiveID)
	if err != nil {
		return err
	}

	var key string
	paths := table.PathsInArchive(archiveID)
	version, _ := table.Version(firstOr(paths, ""))

	switch kind {
	case deptable.KindMedia:
		key = repository.MediaArchiveKey(dbName, version, archiveID)
	case deptable.KindAttachment:
		key = repository.AttachmentArchiveKey(dbName, version, archiveID)
	default:
		key = repository.MetaArchiveKey(dbName, version, archiveID)
	}

	tmp, err := os.CreateTemp(destDir, "archive-*.zip")
	if err != nil {
		return xerrors.Wrap(xerrors.KindIO, "creating temp archive file", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := p.fetchWithRetry(ctx, repo, key, tmpPath); err != nil {
		return err
	}

	return archive.Unpack(tmpPath, destDir)
}

func firstOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return items[0]
}

// reuseFromSiblingVersion looks for path already materialized under a
// different version directory of the same flavor tier (complete or
// not), and
// hard-links it into dir when its recorded checksum still matches
// (spec.md §4.7 "cross-version reuse": unchanged files are not
// redownloaded just because the enclosing version bumped).
func (p *Pipeline) reuseFromSiblingVersion(table *deptable.Table, dir, path string) bool {
	flavorRoot := filepath.Dir(dir)
	entries, err := os.ReadDir(flavorRoot)
	if err != nil {
		return false
	}

	wantChecksum, err := table.Checksum(path)
	if err != nil || wantChecksum == "" {
		return false
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		siblingDir := filepath.Join(flavorRoot, entry.Name())
		if siblingDir == dir {
			continue
		}
		candidate := filepath.Join(siblingDir, filepath.FromSlash(path))
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		got, err := archive.Checksum(candidate)
		if err != nil || got != wantChecksum {
			continue
		}
		dest := filepath.Join(dir, filepath.FromSlash(path))
		if err := cache.LinkFile(candidate, dest); err != nil {
			continue
		}
		return true
	}
	return false
}

// transformScope applies spec's audio transform to every media path in
// scope that materialized successfully in originalDir, and hard-links
// non-media paths through unchanged (spec.md §4.5: "non-audio content
// passes through untransformed").
func (p *Pipeline) transformScope(ctx context.Context, spec flavor.Spec, table *deptable.Table, originalDir, flavorDir string, scope []string, skip map[string]error, reporter progress.Reporter) map[string]error {
	failures := make(map[string]error)

	for _, path := range scope {
		if _, failed := skip[path]; failed {
			continue
		}

		src := filepath.Join(originalDir, filepath.FromSlash(path))
		dest := filepath.Join(flavorDir, filepath.FromSlash(path))

		if _, err := os.Stat(dest); err == nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			failures[path] = xerrors.Wrap(xerrors.KindIO, "creating flavor directory", err)
			continue
		}

		kind, _ := table.KindOf(path)
		if kind != deptable.KindMedia {
			if err := cache.LinkFile(src, dest); err != nil {
				failures[path] = err
			}
			continue
		}

		if err := p.transformer.Transform(ctx, spec, src, dest); err != nil {
			failures[path] = &xerrors.FlavorError{Path: path, Cause: err}
			continue
		}
		reporter.Report(progress.Event{Stage: "transform", Item: path})
	}

	return failures
}
