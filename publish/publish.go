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

// Package publish implements the publish pipeline (spec.md §4.8):
// validating a build directory against a target version, diffing it
// against the previous dependency table, assigning content-addressed
// archives to whatever changed, and committing the new version in the
// order that keeps it invisible until complete.
//
// Grounded on the teacher's client-side plan/diff/upload flow
// (cli/cmd/publish/publish.go's fileDiff, cli/cmd/publish/plan.go's
// added/changed/removed classification) and
// controlplane/chunk/flavor.go's CreateFlavorVersion (the same
// classification shape, there built on merkletree content hashes
// instead of a per-file checksum walk).
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/alitto/pond"

	"github.com/audeon/audb/archive"
	"github.com/audeon/audb/audformat"
	"github.com/audeon/audb/deptable"
	"github.com/audeon/audb/internal/config"
	"github.com/audeon/audb/internal/xerrors"
	"github.com/audeon/audb/progress"
	"github.com/audeon/audb/repository"
)

// mediaDir and attachmentDir name the build-directory subtrees whose
// files classify as deptable.KindMedia / deptable.KindAttachment. Every
// other file in the build directory is deptable.KindMeta (a data table
// file, as opposed to the top-level db.parquet/db.yaml audb itself
// manages).
const (
	mediaDir      = "media"
	attachmentDir = "attachments"
)

// Options controls one Publish call.
type Options struct {
	// PreviousVersion is the version this publish diffs against. Empty
	// means "first publish of dbName": every build file is new.
	PreviousVersion string
	// Attrs supplies the audio attributes for media paths that are new
	// or modified (spec.md §3: attributes are zero for non-audio
	// media). Paths absent from Attrs get the zero value.
	Attrs map[string]deptable.MediaAttrs
	Progress progress.Reporter
}

// Pipeline runs publishes against a resolver-configured repository.
type Pipeline struct {
	resolver *repository.Resolver
	cfg      config.ConcurrencyConfig
	logger   *slog.Logger
}

// New builds a publish Pipeline.
func New(resolver *repository.Resolver, cfg config.ConcurrencyConfig, logger *slog.Logger) *Pipeline {
	return &Pipeline{resolver: resolver, cfg: cfg, logger: logger}
}

// Result summarizes a completed publish.
type Result struct {
	Version string
	Table   *deptable.Table
	Plan    Plan
}

// Publish validates buildDir against version, diffs it against
// PreviousVersion's dependency table, uploads whatever changed, and
// commits the new table and header last.
//
// Stages (spec.md §4.8): preconditions, load prior state, discover +
// diff build dir, classify, assign archives, bounded pack+upload, write
// table, publish header.
func (p *Pipeline) Publish(ctx context.Context, dbName, version, buildDir string, header audformat.Header, opts Options) (*Result, error) {
	reporter := opts.Progress
	if reporter == nil {
		reporter = progress.Discard
	}

	if err := p.preconditions(ctx, dbName, version, buildDir, opts); err != nil {
		return nil, err
	}

	repo, err := p.resolver.Primary()
	if err != nil {
		return nil, err
	}

	prior := deptable.New()
	if opts.PreviousVersion != "" {
		priorRepo, resolvedPrev, err := p.resolver.Repository(ctx, dbName, opts.PreviousVersion)
		if err != nil {
			return nil, err
		}
		prior, err = p.loadPriorTable(ctx, priorRepo, dbName, resolvedPrev)
		if err != nil {
			return nil, err
		}
	}

	buildFiles, err := discoverBuildFiles(buildDir)
	if err != nil {
		return nil, err
	}
	reporter.Report(progress.Event{Stage: "discover", Done: len(buildFiles), Total: len(buildFiles)})

	plan, err := classify(prior, buildFiles)
	if err != nil {
		return nil, err
	}
	reporter.Report(progress.Event{Stage: "plan", Done: plan.Len(), Total: plan.Len()})

	table, err := p.packAndUpload(ctx, repo, dbName, version, prior, plan, opts.Attrs, reporter)
	if err != nil {
		return nil, err
	}

	if err := p.uploadTable(ctx, repo, dbName, version, table); err != nil {
		return nil, err
	}
	reporter.Report(progress.Event{Stage: "table", Done: 1, Total: 1})

	// header uploaded last: its presence is the visibility commit
	// (spec.md §4.8 "a version is considered published once db.yaml and
	// db.parquet both exist" — db.parquet must therefore exist first).
	if err := p.uploadHeader(ctx, repo, dbName, version, header); err != nil {
		return nil, err
	}
	reporter.Report(progress.Event{Stage: "header", Done: 1, Total: 1})

	return &Result{Version: version, Table: table, Plan: plan}, nil
}

// preconditions validates everything spec.md §4.8 requires before any
// network call: version is valid semver, dbName follows the portable id
// pattern, every build file has a lowercase extension, the build
// directory contains no symlinks (portability across backends that
// don't preserve them), and previous_version, if given, actually exists.
func (p *Pipeline) preconditions(ctx context.Context, dbName, version, buildDir string, opts Options) error {
	if _, err := semver.NewVersion(version); err != nil {
		return xerrors.Wrap(xerrors.KindInvalidArgument, fmt.Sprintf("version %q is not valid semver", version), err)
	}
	if err := audformat.ValidateID(dbName); err != nil {
		return err
	}

	info, err := os.Stat(buildDir)
	if err != nil || !info.IsDir() {
		return xerrors.New(xerrors.KindInvalidArgument, fmt.Sprintf("build directory %q does not exist", buildDir))
	}

	if err := filepath.WalkDir(buildDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		li, err := os.Lstat(path)
		if err != nil {
			return err
		}
		if li.Mode()&os.ModeSymlink != 0 {
			return xerrors.New(xerrors.KindInvalidArgument, fmt.Sprintf("build directory contains a symlink, which is not portable across backends: %s", path))
		}
		ext := filepath.Ext(path)
		if ext != strings.ToLower(ext) {
			return xerrors.New(xerrors.KindInvalidArgument, fmt.Sprintf("file extension must be lowercase: %s", path))
		}
		return nil
	}); err != nil {
		return err
	}

	if opts.PreviousVersion != "" {
		ok, err := p.resolver.Available(ctx, dbName, opts.PreviousVersion)
		if err != nil {
			return err
		}
		if !ok {
			return xerrors.New(xerrors.KindInvalidArgument, fmt.Sprintf("previous_version %q is not published", opts.PreviousVersion))
		}
	}

	published, err := p.resolver.Available(ctx, dbName, version)
	if err != nil {
		return err
	}
	if published {
		return xerrors.New(xerrors.KindInvalidArgument, fmt.Sprintf("%s/%s is already published", dbName, version))
	}

	return nil
}

func (p *Pipeline) loadPriorTable(ctx context.Context, repo repository.Repository, dbName, version string) (*deptable.Table, error) {
	tmp, err := os.CreateTemp("", "audb-prior-*.parquet")
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindIO, "creating temp file for prior table", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := repo.Backend.Get(ctx, repository.TableKey(dbName, version), tmp); err != nil {
		tmp.Close()
		return nil, err
	}
	tmp.Close()

	return deptable.Read(tmpPath)
}

func (p *Pipeline) uploadTable(ctx context.Context, repo repository.Repository, dbName, version string, table *deptable.Table) error {
	tmp, err := os.CreateTemp("", "audb-table-*.parquet")
	if err != nil {
		return xerrors.Wrap(xerrors.KindIO, "creating temp table file", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := table.WriteParquet(tmpPath); err != nil {
		return err
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return xerrors.Wrap(xerrors.KindIO, "reopening table file for upload", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return xerrors.Wrap(xerrors.KindIO, "stat table file", err)
	}

	return repo.Backend.Put(ctx, repository.TableKey(dbName, version), f, info.Size())
}

func (p *Pipeline) uploadHeader(ctx context.Context, repo repository.Repository, dbName, version string, header audformat.Header) error {
	tmp, err := os.CreateTemp("", "audb-header-*.yaml")
	if err != nil {
		return xerrors.Wrap(xerrors.KindIO, "creating temp header file", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := audformat.WriteHeader(header, tmpPath); err != nil {
		return err
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return xerrors.Wrap(xerrors.KindIO, "reopening header file for upload", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return xerrors.Wrap(xerrors.KindIO, "stat header file", err)
	}

	return repo.Backend.Put(ctx, repository.HeaderKey(dbName, version), f, info.Size())
}

// packAndUpload packs every added/modified file into its own
// content-addressed archive, skips the upload when that fingerprint
// already exists in the backend (spec.md §4.8: "archive upload is
// skipped when the fingerprint already exists"), and assembles the new
// dependency table from prior (for unchanged/removed rows) and the
// fresh archive assignments (for added/modified rows).
func (p *Pipeline) packAndUpload(ctx context.Context, repo repository.Repository, dbName, version string, prior *deptable.Table, plan Plan, attrs map[string]deptable.MediaAttrs, reporter progress.Reporter) (*deptable.Table, error) {
	table := deptable.New()

	for _, path := range plan.Unchanged {
		row, err := prior.Row(path)
		if err != nil {
			return nil, err
		}
		if err := appendRow(table, row); err != nil {
			return nil, err
		}
	}
	for _, path := range plan.Removed {
		row, err := prior.Row(path)
		if err != nil {
			return nil, err
		}
		if row.Kind != deptable.KindMedia {
			// only media rows are tombstoned; a table or attachment
			// missing from the build is left out of the new table.
			continue
		}
		row.Removed = true
		if err := appendRow(table, row); err != nil {
			return nil, err
		}
	}

	toUpload := append(append([]BuildFile{}, plan.Added...), plan.Modified...)

	workers := p.cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	var (
		mu      sync.Mutex
		rows    = make(map[string]deptable.Row, len(toUpload))
		failure error
	)

	if len(toUpload) > 0 {
		pool := pond.New(workers, len(toUpload))
		for _, bf := range toUpload {
			bf := bf
			pool.Submit(func() {
				row, err := p.packOne(ctx, repo, dbName, version, bf, attrs)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if failure == nil {
						failure = err
					}
					return
				}
				rows[bf.Path] = row
				reporter.Report(progress.Event{Stage: "pack", Item: bf.Path})
			})
		}
		pool.StopAndWait()
	}
	if failure != nil {
		return nil, failure
	}

	for _, bf := range toUpload {
		if err := appendRow(table, rows[bf.Path]); err != nil {
			return nil, err
		}
	}

	return table, nil
}

func appendRow(table *deptable.Table, row deptable.Row) error {
	switch row.Kind {
	case deptable.KindMedia:
		return table.AddMedia(row.Path, row.Archive, row.Format, row.Version, row.Checksum, deptable.MediaAttrs{
			BitDepth: row.BitDepth, Channels: row.Channels, SamplingRate: row.SamplingRate, Duration: row.Duration,
		})
	case deptable.KindAttachment:
		if err := table.AddAttachment(row.Path, row.Archive, row.Version, row.Checksum); err != nil {
			return err
		}
	default:
		if err := table.AddMeta(row.Path, row.Archive, row.Format, row.Version, row.Checksum); err != nil {
			return err
		}
	}
	if row.Removed {
		return table.Remove(row.Path)
	}
	return nil
}

// stableID derives the table_id/attachment_id a meta or attachment
// archive is keyed by (spec.md §4.3, §4.8 precondition
// "[A-Za-z0-9._-]+"): the build file's base name with the "db." table
// prefix and extension stripped, e.g. "db.age.parquet" -> "age",
// "attachments/license.txt" -> "license".
func stableID(path string) string {
	base := filepath.Base(path)
	base = strings.TrimPrefix(base, "db.")
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (p *Pipeline) packOne(ctx context.Context, repo repository.Repository, dbName, version string, bf BuildFile, attrs map[string]deptable.MediaAttrs) (deptable.Row, error) {
	member := archive.Member{Name: bf.Path, Path: bf.LocalPath}

	// Media archives are keyed by a UUIDv5 fingerprint (one archive can
	// later bundle several media members); table and attachment archives
	// are keyed by their own stable id instead, per spec.md §4.3's
	// bit-exact key layout (<name>/meta/<version>/<table_id>.zip,
	// <name>/attachment/<version>/<attachment_id>.zip). archiveID is
	// stored in the row's archive column so load reconstructs the same
	// key without recomputing a fingerprint.
	var key, archiveID string
	switch bf.Kind {
	case deptable.KindMedia:
		archiveID = archive.Fingerprint(version, []archive.Member{member})
		key = repository.MediaArchiveKey(dbName, version, archiveID)
	case deptable.KindAttachment:
		archiveID = stableID(bf.Path)
		key = repository.AttachmentArchiveKey(dbName, version, archiveID)
	default:
		archiveID = stableID(bf.Path)
		key = repository.MetaArchiveKey(dbName, version, archiveID)
	}

	exists, err := repo.Backend.Exists(ctx, key)
	if err != nil {
		return deptable.Row{}, err
	}

	var checksum string
	if exists {
		// archive already uploaded (a prior publish attempt got this far,
		// or an identical member is shared by another path): skip the
		// pack+upload entirely, spec.md §4.8.
		checksum, err = archive.Checksum(bf.LocalPath)
		if err != nil {
			return deptable.Row{}, err
		}
	} else {
		tmp, err := os.CreateTemp("", "audb-archive-*.zip")
		if err != nil {
			return deptable.Row{}, xerrors.Wrap(xerrors.KindIO, "creating temp archive file", err)
		}
		tmpPath := tmp.Name()
		tmp.Close()
		defer os.Remove(tmpPath)

		if _, err = archive.Pack(tmpPath, []archive.Member{member}); err != nil {
			return deptable.Row{}, err
		}
		// the checksum column records the file's own bytes, not the
		// archive's, so classify can compare it against the build file.
		checksum, err = archive.Checksum(bf.LocalPath)
		if err != nil {
			return deptable.Row{}, err
		}

		f, err := os.Open(tmpPath)
		if err != nil {
			return deptable.Row{}, xerrors.Wrap(xerrors.KindIO, "reopening archive for upload", err)
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return deptable.Row{}, xerrors.Wrap(xerrors.KindIO, "stat archive", err)
		}
		err = repo.Backend.Put(ctx, key, f, info.Size())
		f.Close()
		if err != nil {
			return deptable.Row{}, err
		}
	}

	row := deptable.Row{
		Path:     bf.Path,
		Archive:  archiveID,
		Kind:     bf.Kind,
		Format:   strings.TrimPrefix(filepath.Ext(bf.Path), "."),
		Version:  version,
		Checksum: checksum,
	}
	if bf.Kind == deptable.KindMedia {
		if a, ok := attrs[bf.Path]; ok {
			row.BitDepth = a.BitDepth
			row.Channels = a.Channels
			row.SamplingRate = a.SamplingRate
			row.Duration = a.Duration
		}
	}
	return row, nil
}
