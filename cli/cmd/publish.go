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

	"github.com/audeon/audb/audformat"
	"github.com/audeon/audb/cli"
	"github.com/audeon/audb/progress"
	"github.com/audeon/audb/publish"
)

func newPublishCommand(ctx context.Context, cliCtx cli.Context) *cobra.Command {
	var (
		version         string
		previousVersion string
		header          string
		attrsPath       string
	)

	run := func(cmd *cobra.Command, args []string) error {
		dbName := args[0]
		buildDir := args[1]

		hdr := audformat.Header{Name: dbName}
		if header != "" {
			h, err := audformat.ReadHeader(header)
			if err != nil {
				return fmt.Errorf("reading header: %w", err)
			}
			hdr = h
		}

		attrs, err := loadAttrs(attrsPath)
		if err != nil {
			return err
		}

		result, err := cliCtx.Publish.Publish(ctx, dbName, version, buildDir, hdr, publish.Options{
			PreviousVersion: previousVersion,
			Attrs:           attrs,
			Progress:        progress.Func(printProgress),
		})
		if err != nil {
			return fmt.Errorf("publish %s@%s: %w", dbName, version, err)
		}

		fmt.Printf(
			"published %s@%s: %d added, %d modified, %d removed, %d unchanged\n",
			dbName, result.Version,
			len(result.Plan.Added), len(result.Plan.Modified),
			len(result.Plan.Removed), len(result.Plan.Unchanged),
		)
		return nil
	}

	c := &cobra.Command{
		Use:          "publish <database> <build-dir>",
		Short:        "Publishes a new database version from a build directory.",
		Args:         cobra.ExactArgs(2),
		RunE:         run,
		SilenceUsage: true,
	}

	c.Flags().StringVar(&version, "version", "", "version to publish (required, semver)")
	c.Flags().StringVar(&previousVersion, "previous-version", "", "prior version to diff against (empty: first version)")
	c.Flags().StringVar(&header, "header", "", "path to a db.yaml to use as the header (default: {name: <database>})")
	c.Flags().StringVar(&attrsPath, "attrs", "", "path to a sidecar YAML file of per-path media attributes")
	_ = c.MarkFlagRequired("version")

	return c
}
