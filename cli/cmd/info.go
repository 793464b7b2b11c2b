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
	"strings"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/audeon/audb/cli"
	"github.com/audeon/audb/info"
)

// section is a headerless table, used to align a fixed set of key/value
// facts (mirrors the teacher's cli.Section helper in cli/util.go).
func section() table.Table {
	t := table.New("", "")
	t.WithHeaderFormatter(func(string, ...any) string { return "" })
	return t
}

func newInfoCommand(ctx context.Context, cliCtx cli.Context) *cobra.Command {
	var (
		version   string
		withTable bool
	)

	run := func(cmd *cobra.Command, args []string) error {
		dbName := args[0]

		result, err := cliCtx.Info.Query(ctx, dbName, version, info.Options{WithTable: withTable})
		if err != nil {
			return fmt.Errorf("info %s@%s: %w", dbName, version, err)
		}

		t := section()
		t.AddRow("Name:", result.Header.Name)
		t.AddRow("Version:", result.Version)
		t.AddRow("Schemes:", strings.Join(result.Schemes, ","))
		t.AddRow("Splits:", strings.Join(result.Splits, ","))
		t.AddRow("Tables:", strings.Join(result.Tables, ","))
		t.AddRow("Raters:", strings.Join(result.Raters, ","))
		t.AddRow("Languages:", strings.Join(result.Languages, ","))
		if withTable {
			t.AddRow("Files:", result.FileCount)
			t.AddRow("Duration (s):", result.Duration)
		}
		t.Print()

		return nil
	}

	c := &cobra.Command{
		Use:          "info <database>",
		Short:        "Prints header-level facts about a database version.",
		Args:         cobra.ExactArgs(1),
		RunE:         run,
		SilenceUsage: true,
	}

	c.Flags().StringVar(&version, "version", "latest", "database version to query")
	c.Flags().BoolVar(&withTable, "with-table", false, "also fetch db.parquet to report file count and duration")

	return c
}
