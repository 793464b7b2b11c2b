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

// Package backend defines the pluggable storage interface audb talks to
// (spec.md §4.3) and a registry for looking up a concrete implementation
// by kind name from repository configuration.
//
// Grounded on the teacher's blob.S3Store interface
// (controlplane/blob/s3.go), generalized from one fixed S3-backed
// implementation to several interchangeable backends behind the same
// shape (exists/get/put/list/delete).
package backend

import (
	"context"
	"io"

	"github.com/audeon/audb/internal/xerrors"
)

// Backend is the storage contract every repository backend implements.
// Keys are caller-chosen strings following the layout built by the
// repository package: "<name>/<version>/db.yaml" and
// "<name>/<version>/db.parquet" for headers and tables, and
// "<name>/{media,meta,attachment}/<version>/<id>.zip" for archives.
type Backend interface {
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
	// Get streams the object at key into w.
	Get(ctx context.Context, key string, w io.Writer) error
	// Put uploads r's content to key. Implementations must make the
	// object visible atomically: a concurrent Get for key must either
	// see nothing or the complete object, never a partial write
	// (spec.md §4.3, §4.8 "visibility commit").
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	// List returns all keys with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	// Delete removes key. Deleting a non-existent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Kind names a backend implementation, matching spec.md §6's
// `backend_kind` repository configuration field.
type Kind string

const (
	KindFileSystem  Kind = "file-system"
	KindS3          Kind = "s3"
	KindMinIO       Kind = "minio"
	KindArtifactory Kind = "artifactory"
)

func errUnsupported(kind Kind) error {
	return xerrors.New(xerrors.KindUnsupportedBackend, "unsupported backend kind: "+string(kind))
}
