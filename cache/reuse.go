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

package cache

import (
	"io"
	"os"
	"path/filepath"

	"github.com/audeon/audb/internal/xerrors"
)

// LinkFile hard-links an already-cached file at srcPath into destPath,
// creating destPath's parent directories as needed. This is how the
// load pipeline reuses bytes across versions and flavors (spec.md
// §4.7: a file whose checksum is unchanged from an already-cached
// version is linked rather than re-fetched and re-unpacked).
//
// If the filesystem does not support hard links across srcPath and
// destPath (e.g. different volumes), LinkFile falls back to a copy so
// that reuse is never a hard requirement for correctness, only an
// optimization.
func LinkFile(srcPath, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return xerrors.Wrap(xerrors.KindIO, "creating cache reuse destination directory", err)
	}

	if err := os.Link(srcPath, destPath); err == nil {
		return nil
	}

	return copyFile(srcPath, destPath)
}

func copyFile(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return xerrors.Wrap(xerrors.KindIO, "opening cache reuse source file", err)
	}
	defer src.Close()

	dest, err := os.OpenFile(destPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return xerrors.Wrap(xerrors.KindIO, "creating cache reuse destination file", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		return xerrors.Wrap(xerrors.KindIO, "copying cache reuse file", err)
	}
	return nil
}
