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

// Package repository implements the version resolver (spec.md §4.6):
// a named, backend-addressed location that may hold multiple database
// names and versions, plus resolution of a requested version string
// ("latest" or an exact version) against what is actually available,
// ordered by strict semver precedence.
//
// Grounded on the teacher's abstraction of "a backend-addressed content
// store identified by name" (controlplane/blob.S3Store, always
// constructed once per deployment); audb generalizes this to an ordered
// list of named repositories that are searched in turn, since spec.md
// §6 allows multiple configured repositories to back a single logical
// database.
package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/audeon/audb/backend"
	"github.com/audeon/audb/internal/config"
	"github.com/audeon/audb/internal/xerrors"
)

// Repository is one configured, backend-addressed location.
type Repository struct {
	Name    string
	Host    string
	Backend backend.Backend
}

// Resolver searches an ordered list of repositories for database
// versions (spec.md §4.6: "repositories are searched in configured
// order; the first repository containing the requested version wins").
type Resolver struct {
	repos []Repository
}

// New builds a Resolver from repository configuration, constructing a
// backend for each entry.
func New(ctx context.Context, cfgs []config.RepositoryConfig) (*Resolver, error) {
	repos := make([]Repository, 0, len(cfgs))
	for _, c := range cfgs {
		b, err := backend.New(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("constructing backend for repository %q: %w", c.Name, err)
		}
		repos = append(repos, Repository{Name: c.Name, Host: c.Host, Backend: b})
	}
	return &Resolver{repos: repos}, nil
}

// Key naming convention (spec.md §4.3, bit-exact):
//
//	HeaderKey      <name>/<version>/db.yaml
//	TableKey       <name>/<version>/db.parquet
//	MetaArchiveKey <name>/meta/<version>/<table_id>.zip
//	MediaArchiveKey        <name>/media/<version>/<fingerprint>.zip
//	AttachmentArchiveKey   <name>/attachment/<version>/<attachment_id>.zip

func HeaderKey(dbName, version string) string {
	return strings.Join([]string{dbName, version, "db.yaml"}, "/")
}

func TableKey(dbName, version string) string {
	return strings.Join([]string{dbName, version, "db.parquet"}, "/")
}

func MetaArchiveKey(dbName, version, tableID string) string {
	return strings.Join([]string{dbName, "meta", version, tableID + ".zip"}, "/")
}

func MediaArchiveKey(dbName, version, fingerprint string) string {
	return strings.Join([]string{dbName, "media", version, fingerprint + ".zip"}, "/")
}

func AttachmentArchiveKey(dbName, version, attachmentID string) string {
	return strings.Join([]string{dbName, "attachment", version, attachmentID + ".zip"}, "/")
}

// Primary returns the first configured repository, the target publish
// writes new versions to (spec.md §4.8: publishing targets a single
// repository; reads fall through an ordered list, writes do not).
func (r *Resolver) Primary() (Repository, error) {
	if len(r.repos) == 0 {
		return Repository{}, xerrors.New(xerrors.KindInvalidArgument, "no repository configured")
	}
	return r.repos[0], nil
}

// Versions returns every version of dbName available across all
// configured repositories, deduplicated and sorted ascending by semver
// precedence. A repository that does not exist, rejects the caller's
// credentials, or whose backend kind is unsupported on the current
// platform is skipped silently; only transport-level failures are
// surfaced (spec.md §4.6).
func (r *Resolver) Versions(ctx context.Context, dbName string) ([]string, error) {
	seen := make(map[string]struct{})

	for _, repo := range r.repos {
		keys, err := repo.Backend.List(ctx, dbName+"/")
		if err != nil {
			if skippable(err) {
				continue
			}
			return nil, xerrors.Wrap(xerrors.KindNetwork, fmt.Sprintf("listing versions in repository %q", repo.Name), err)
		}
		for _, k := range keys {
			rest := strings.TrimPrefix(k, dbName+"/")
			parts := strings.SplitN(rest, "/", 2)
			if len(parts) < 2 {
				continue
			}
			version := parts[0]
			if version == "meta" || version == "media" || version == "attachment" {
				continue
			}
			seen[version] = struct{}{}
		}
	}

	versions := make([]string, 0, len(seen))
	for v := range seen {
		versions = append(versions, v)
	}
	if err := sortBySemver(versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// LatestVersion returns the highest semver-ordered available version of
// dbName.
func (r *Resolver) LatestVersion(ctx context.Context, dbName string) (string, error) {
	versions, err := r.Versions(ctx, dbName)
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", xerrors.New(xerrors.KindNotFound, fmt.Sprintf("no versions of %q available in any configured repository", dbName))
	}
	return versions[len(versions)-1], nil
}

// published reports whether both db.yaml and db.parquet exist for
// dbName/version in repo (spec.md §4.3: "a version is considered
// published once db.yaml and db.parquet both exist").
func published(ctx context.Context, repo Repository, dbName, version string) (bool, error) {
	table, err := repo.Backend.Exists(ctx, TableKey(dbName, version))
	if err != nil {
		return false, err
	}
	if !table {
		return false, nil
	}
	return repo.Backend.Exists(ctx, HeaderKey(dbName, version))
}

// Repository locates the first configured repository holding a
// published dbName/version, resolving the sentinel "latest" first.
func (r *Resolver) Repository(ctx context.Context, dbName, version string) (Repository, string, error) {
	resolved := version
	if version == "" || version == "latest" {
		v, err := r.LatestVersion(ctx, dbName)
		if err != nil {
			return Repository{}, "", err
		}
		resolved = v
	}

	for _, repo := range r.repos {
		ok, err := published(ctx, repo, dbName, resolved)
		if err != nil {
			if skippable(err) {
				continue
			}
			return Repository{}, "", xerrors.Wrap(xerrors.KindNetwork, fmt.Sprintf("checking repository %q for %s/%s", repo.Name, dbName, resolved), err)
		}
		if ok {
			return repo, resolved, nil
		}
	}

	return Repository{}, "", xerrors.New(xerrors.KindNotFound, fmt.Sprintf("%s/%s not found in any configured repository", dbName, resolved))
}

// Available reports whether dbName/version is published in any
// configured repository, without resolving "latest". Repositories
// that are unreachable for non-transport reasons (missing, auth
// failure, unsupported backend) are skipped rather than failing the
// whole query (spec.md §4.6).
func (r *Resolver) Available(ctx context.Context, dbName, version string) (bool, error) {
	for _, repo := range r.repos {
		ok, err := published(ctx, repo, dbName, version)
		if err != nil {
			if skippable(err) {
				continue
			}
			return false, xerrors.Wrap(xerrors.KindNetwork, fmt.Sprintf("checking repository %q for %s/%s", repo.Name, dbName, version), err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// skippable reports whether err represents a repository-level failure
// that spec.md §4.6 says to skip silently (auth, unsupported backend)
// rather than surface (transport/network failures are not skippable).
func skippable(err error) bool {
	kind, ok := xerrors.Of(err)
	if !ok {
		return false
	}
	return kind == xerrors.KindAuth || kind == xerrors.KindUnsupportedBackend || kind == xerrors.KindNotFound
}

func sortBySemver(versions []string) error {
	parsed := make([]*semver.Version, len(versions))
	for i, v := range versions {
		sv, err := semver.NewVersion(v)
		if err != nil {
			return xerrors.Wrap(xerrors.KindInvalidArgument, fmt.Sprintf("version %q is not valid semver", v), err)
		}
		parsed[i] = sv
	}

	idx := make([]int, len(versions))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return parsed[idx[i]].LessThan(parsed[idx[j]]) })

	out := make([]string, len(versions))
	for pos, i := range idx {
		out[pos] = versions[i]
	}
	copy(versions, out)
	return nil
}
