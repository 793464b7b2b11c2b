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

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/audeon/audb/cli"
)

func newVersionsCommand(ctx context.Context, cliCtx cli.Context) *cobra.Command {
	run := func(cmd *cobra.Command, args []string) error {
		dbName := args[0]

		versions, err := cliCtx.Resolver.Versions(ctx, dbName)
		if err != nil {
			return fmt.Errorf("listing versions of %s: %w", dbName, err)
		}

		latest, err := cliCtx.Resolver.LatestVersion(ctx, dbName)
		if err != nil {
			latest = ""
		}

		t := table.New("VERSION", "LATEST")
		for _, v := range versions {
			mark := ""
			if v == latest {
				mark = "*"
			}
			t.AddRow(v, mark)
		}
		t.Print()

		return nil
	}

	return &cobra.Command{
		Use:          "versions <database>",
		Short:        "Lists every published version of a database.",
		Args:         cobra.ExactArgs(1),
		RunE:         run,
		SilenceUsage: true,
	}
}
