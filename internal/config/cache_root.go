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

package config

import (
	"os"
	"path/filepath"
)

// applyHomeDefaults resolves CACHE_ROOT to $XDG_CACHE_HOME/audb or
// ~/.cache/audb when unset (spec.md §6).
func (c *Config) applyHomeDefaults() error {
	if c.Cache.Root != "" {
		return nil
	}

	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		c.Cache.Root = filepath.Join(xdg, "audb")
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	c.Cache.Root = filepath.Join(home, ".cache", "audb")
	return nil
}
