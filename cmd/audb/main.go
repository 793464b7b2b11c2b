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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/audeon/audb/cache"
	"github.com/audeon/audb/cli"
	clicmd "github.com/audeon/audb/cli/cmd"
	"github.com/audeon/audb/info"
	"github.com/audeon/audb/internal/config"
	"github.com/audeon/audb/internal/xlog"
	"github.com/audeon/audb/load"
	"github.com/audeon/audb/publish"
	"github.com/audeon/audb/repository"
)

func main() {
	fs := flag.NewFlagSet("audb", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to audb's config file (default: ./audb.yaml, /etc/audb, $HOME/.config/audb)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		die("failed to parse flags", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		die("failed to load config", err)
	}

	logger := xlog.New(cfg.Logging)

	ctx := context.Background()

	resolver, err := repository.New(ctx, cfg.Repositories)
	if err != nil {
		die("failed to configure repositories", err)
	}

	cacheMgr := cache.New(cfg.Cache, cfg.Lock)
	loadPipeline := load.New(resolver, cacheMgr, nil, cfg.Concurrency, logger)
	publishPipeline := publish.New(resolver, cfg.Concurrency, logger)
	infoService := info.New(resolver, cacheMgr, logger)

	cliCtx := cli.Context{
		Config:   cfg,
		Resolver: resolver,
		Cache:    cacheMgr,
		Load:     loadPipeline,
		Publish:  publishPipeline,
		Info:     infoService,
	}

	if err := clicmd.Root(ctx, cliCtx).Execute(); err != nil {
		os.Exit(1)
	}
}

func die(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
