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

// Package xhash provides short, stable, non-cryptographic hashing helpers
// used for identifiers that must be deterministic but are not exposed as
// security boundaries (flavor ids, in-memory diff keys). Content checksums
// that are part of the on-disk/on-wire contract (dependency table
// checksums) use crypto/md5 directly per spec and are not routed through
// this package.
package xhash

import (
	"fmt"

	"github.com/zeebo/xxh3"
)

// Short returns a short hex-encoded xxh3 digest of b.
func Short(b []byte) string {
	return fmt.Sprintf("%x", xxh3.Hash(b))
}

// ShortString is Short for a string input.
func ShortString(s string) string {
	return fmt.Sprintf("%x", xxh3.HashString(s))
}
