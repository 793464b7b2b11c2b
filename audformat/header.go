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

// Package audformat holds the narrow collaborator surface audb uses
// to treat a database header (db.yaml) and table files as opaque blobs
// it never interprets (spec.md §1 Non-goals: "the on-disk/on-wire
// audformat schema... is out of scope; the core treats a table file and
// a database header as opaque blobs identified by name"), plus a
// concrete YAML-backed Header type so info queries (§4.9) have
// something real to answer from without the core depending on a full
// schema library.
//
// Grounded on the teacher's generic ReadYAMLFile/WriteYAMLFile helpers
// (cli/yaml.go), using the same `goccy/go-yaml` library, generalized
// from CLI config structs to the database header schema.
package audformat

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/audeon/audb/internal/xerrors"
)

// Header is the subset of db.yaml's structure audb's info queries
// (spec.md §4.9) answer questions from directly: schemes, splits,
// tables, raters, languages, and free-form metadata. Everything else in
// a real audformat header round-trips through Extra, since audb does
// not validate or interpret the full schema.
type Header struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Author      string            `yaml:"author,omitempty"`
	License     string            `yaml:"license,omitempty"`
	Languages   []string          `yaml:"languages,omitempty"`
	Schemes     []string          `yaml:"schemes,omitempty"`
	Splits      []string          `yaml:"splits,omitempty"`
	Tables      []string          `yaml:"tables,omitempty"`
	Raters      []string          `yaml:"raters,omitempty"`
	Extra       map[string]any    `yaml:",inline"`
}

// ReadHeader loads and parses a db.yaml file.
func ReadHeader(path string) (Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Header{}, xerrors.Wrap(xerrors.KindIO, "reading database header", err)
	}

	var h Header
	if err := yaml.Unmarshal(data, &h); err != nil {
		return Header{}, xerrors.Wrap(xerrors.KindCorrupt, "parsing database header", err)
	}
	return h, nil
}

// WriteHeader serializes h to path.
func WriteHeader(h Header, path string) error {
	data, err := yaml.Marshal(&h)
	if err != nil {
		return xerrors.Wrap(xerrors.KindIO, "marshaling database header", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return xerrors.Wrap(xerrors.KindIO, "writing database header", err)
	}
	return nil
}

// ValidateID checks the portability constraints spec.md §4.8 requires of
// a publishable database: database, table and attachment ids are
// non-empty and use a restricted character set.
func ValidateID(id string) error {
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			continue
		default:
			return xerrors.New(xerrors.KindInvalidArgument, fmt.Sprintf("id %q contains characters outside [A-Za-z0-9._-]", id))
		}
	}
	if id == "" {
		return xerrors.New(xerrors.KindInvalidArgument, "id must not be empty")
	}
	return nil
}
