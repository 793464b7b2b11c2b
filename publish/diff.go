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

package publish

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/audeon/audb/archive"
	"github.com/audeon/audb/deptable"
)

// BuildFile is one file discovered under a publish build directory.
type BuildFile struct {
	// Path is the archive member / dependency table path, forward-slash
	// separated and relative to the build directory root.
	Path string
	// LocalPath is where the file actually lives on disk.
	LocalPath string
	Kind      deptable.Kind
}

// Plan is the classification of a build directory against the prior
// dependency table (spec.md §4.8), grounded on the teacher's
// cli/cmd/publish/publish.go localFlavor.fileDiff (added/modified/
// removed by path, compared by content hash) and
// cli/cmd/publish/plan.go's four-way print of that same classification.
type Plan struct {
	Added     []BuildFile
	Modified  []BuildFile
	Removed   []string
	Unchanged []string
}

// Len returns the total number of paths covered by the plan.
func (p Plan) Len() int {
	return len(p.Added) + len(p.Modified) + len(p.Removed) + len(p.Unchanged)
}

// discoverBuildFiles walks buildDir and classifies every file by the
// convention mediaDir/attachmentDir subtree it sits under; anything
// else is a meta (data table) file.
func discoverBuildFiles(buildDir string) ([]BuildFile, error) {
	var out []BuildFile
	err := filepath.WalkDir(buildDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(buildDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		out = append(out, BuildFile{Path: rel, LocalPath: path, Kind: kindOf(rel)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func kindOf(path string) deptable.Kind {
	switch {
	case path == mediaDir || hasPrefixDir(path, mediaDir):
		return deptable.KindMedia
	case path == attachmentDir || hasPrefixDir(path, attachmentDir):
		return deptable.KindAttachment
	default:
		return deptable.KindMeta
	}
}

func hasPrefixDir(path, dir string) bool {
	return len(path) > len(dir) && path[:len(dir)] == dir && path[len(dir)] == '/'
}

// classify diffs buildFiles against prior, the previous version's
// dependency table. A path present in both with an identical checksum
// and not previously tombstoned is unchanged; present in both but
// different (or previously tombstoned, i.e. resurrected) is modified;
// present only in buildFiles is added; present only in prior (and not
// already tombstoned) is newly removed.
func classify(prior *deptable.Table, buildFiles []BuildFile) (Plan, error) {
	var plan Plan

	present := make(map[string]struct{}, len(buildFiles))
	for _, bf := range buildFiles {
		present[bf.Path] = struct{}{}

		checksum, err := archive.Checksum(bf.LocalPath)
		if err != nil {
			return Plan{}, err
		}

		if !prior.Contains(bf.Path) {
			plan.Added = append(plan.Added, bf)
			continue
		}

		priorChecksum, err := prior.Checksum(bf.Path)
		if err != nil {
			return Plan{}, err
		}
		removed, err := prior.IsRemoved(bf.Path)
		if err != nil {
			return Plan{}, err
		}

		if !removed && priorChecksum == checksum {
			plan.Unchanged = append(plan.Unchanged, bf.Path)
		} else {
			plan.Modified = append(plan.Modified, bf)
		}
	}

	for _, path := range prior.Files() {
		if _, ok := present[path]; ok {
			continue
		}
		removed, err := prior.IsRemoved(path)
		if err != nil {
			return Plan{}, err
		}
		if removed {
			plan.Unchanged = append(plan.Unchanged, path)
		} else {
			plan.Removed = append(plan.Removed, path)
		}
	}

	return plan, nil
}
