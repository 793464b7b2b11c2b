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
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/audeon/audb/internal/xerrors"
)

// FileSystem is a Backend rooted at a local directory. It needs no
// ecosystem client: every other backend wraps a remote protocol client,
// but local storage is just os calls, so stdlib is not a substitution
// for anything in the retrieval pack here.
type FileSystem struct {
	root string
}

// NewFileSystem returns a FileSystem backend rooted at root. root is
// created if missing.
func NewFileSystem(root string) (*FileSystem, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, xerrors.Wrap(xerrors.KindIO, "creating file-system backend root", err)
	}
	return &FileSystem{root: root}, nil
}

func (b *FileSystem) path(key string) string {
	return filepath.Join(b.root, filepath.FromSlash(key))
}

func (b *FileSystem) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(b.path(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, xerrors.Wrap(xerrors.KindIO, "stat", err)
}

func (b *FileSystem) Get(_ context.Context, key string, w io.Writer) error {
	f, err := os.Open(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return xerrors.New(xerrors.KindNotFound, "key not found: "+key)
		}
		return xerrors.Wrap(xerrors.KindIO, "open", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return xerrors.Wrap(xerrors.KindIO, "read", err)
	}
	return nil
}

func (b *FileSystem) Put(_ context.Context, key string, r io.Reader, _ int64) error {
	dest := b.path(key)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return xerrors.Wrap(xerrors.KindIO, "mkdir", err)
	}

	// write to a temp file in the same directory, then rename, so a
	// concurrent reader never observes a partial object.
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".put-*.tmp")
	if err != nil {
		return xerrors.Wrap(xerrors.KindIO, "create temp", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return xerrors.Wrap(xerrors.KindIO, "write", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return xerrors.Wrap(xerrors.KindIO, "close temp", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return xerrors.Wrap(xerrors.KindIO, "rename", err)
	}
	return nil
}

func (b *FileSystem) List(_ context.Context, prefix string) ([]string, error) {
	var out []string
	root := b.path(prefix)

	walkRoot := root
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		walkRoot = filepath.Dir(root)
	}

	err := filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
		return nil
	})
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindIO, "list", err)
	}
	return out, nil
}

func (b *FileSystem) Delete(_ context.Context, key string) error {
	if err := os.Remove(b.path(key)); err != nil && !os.IsNotExist(err) {
		return xerrors.Wrap(xerrors.KindIO, "delete", err)
	}
	return nil
}
