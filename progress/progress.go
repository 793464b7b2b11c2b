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

// Package progress defines the event-callback interface pipelines report
// through (spec.md §9: "Progress and cancellation"). Pipelines never own
// a UI; callers pass a Reporter (or use Discard) and render it however
// they like — the CLI prints one line per event, a library caller might
// log counts.
package progress

// Event describes one unit of progress.
type Event struct {
	// Stage names the pipeline stage emitting the event, e.g. "resolve",
	// "plan", "fetch", "transform", "pack", "upload".
	Stage string
	// Item is a human-readable identifier for the unit of work, e.g. an
	// archive fingerprint or file path.
	Item string
	// Done and Total describe progress within Stage, when known. Total
	// of 0 means "unknown".
	Done, Total int
	// Bytes is set for byte-oriented stages (fetch, upload).
	Bytes int64
}

// Reporter receives progress events. Implementations must be safe for
// concurrent use: pipelines report from worker goroutines.
type Reporter interface {
	Report(Event)
}

// Discard is a Reporter that does nothing.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Report(Event) {}

// Func adapts a plain function to a Reporter.
type Func func(Event)

func (f Func) Report(e Event) { f(e) }
