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

// Package cli bundles the pipelines cmd/audb's command tree drives,
// built once in main and threaded through every subcommand, mirroring
// the teacher's cli.Context wiring a single gRPC client into every
// chunk/publish/version subcommand (cli/context.go).
package cli

import (
	"github.com/audeon/audb/cache"
	"github.com/audeon/audb/info"
	"github.com/audeon/audb/internal/config"
	"github.com/audeon/audb/load"
	"github.com/audeon/audb/publish"
	"github.com/audeon/audb/repository"
)

// Context holds everything a subcommand needs to run.
type Context struct {
	Config   *config.Config
	Resolver *repository.Resolver
	Cache    *cache.Manager
	Load     *load.Pipeline
	Publish  *publish.Pipeline
	Info     *info.Service
}
