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

package cmd

import (
	"fmt"

	"github.com/audeon/audb/progress"
)

// printProgress renders each pipeline event as one line of output. Pipelines never format their own output (spec.md §9); the
// CLI is just one Reporter among possible callers.
func printProgress(e progress.Event) {
	switch {
	case e.Total > 0:
		fmt.Printf("%s: %s (%d/%d)\n", e.Stage, e.Item, e.Done, e.Total)
	case e.Item != "":
		fmt.Printf("%s: %s\n", e.Stage, e.Item)
	default:
		fmt.Printf("%s\n", e.Stage)
	}
}
