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
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/audeon/audb/cli"
	"github.com/audeon/audb/flavor"
	"github.com/audeon/audb/load"
	"github.com/audeon/audb/progress"
)

func newLoadCommand(ctx context.Context, cliCtx cli.Context) *cobra.Command {
	var (
		version        string
		bitDepth       int
		channels       []int
		format         string
		mixdown        bool
		samplingRate   int
		tables         []string
		includeRemoved bool
	)

	run := func(cmd *cobra.Command, args []string) error {
		dbName := args[0]

		spec := flavor.Spec{
			BitDepth:     bitDepth,
			Channels:     channels,
			Format:       format,
			Mixdown:      mixdown,
			SamplingRate: samplingRate,
		}
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("invalid flavor: %w", err)
		}

		result, err := cliCtx.Load.Load(ctx, dbName, version, spec, load.Options{
			Tables:         tables,
			IncludeRemoved: includeRemoved,
			Progress:       progress.Func(printProgress),
		})
		if err != nil {
			return fmt.Errorf("load %s: %w", dbName, err)
		}

		fmt.Printf("loaded %s@%s into %s\n", dbName, result.Version, result.Dir)
		if result.Err != nil {
			return fmt.Errorf("some files could not be materialized: %w", result.Err)
		}
		return nil
	}

	c := &cobra.Command{
		Use:          "load <database>",
		Short:        "Materializes a database version into the local cache.",
		Args:         cobra.ExactArgs(1),
		RunE:         run,
		SilenceUsage: true,
	}

	c.Flags().StringVar(&version, "version", "latest", "database version to load")
	c.Flags().IntVar(&bitDepth, "bit-depth", 0, "target bit depth (8, 16, 24, 32)")
	c.Flags().IntSliceVar(&channels, "channels", nil, "ordered channel indices to keep")
	c.Flags().StringVar(&format, "format", "", "target format (wav, flac)")
	c.Flags().BoolVar(&mixdown, "mixdown", false, "mix down kept channels to one")
	c.Flags().IntVar(&samplingRate, "sampling-rate", 0, "target sampling rate")
	c.Flags().StringSliceVar(&tables, "tables", nil, "restrict the load to these paths (default: everything)")
	c.Flags().BoolVar(&includeRemoved, "include-removed", false, "also materialize tombstoned rows")

	return c
}
