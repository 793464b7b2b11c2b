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

	"github.com/spf13/cobra"

	"github.com/audeon/audb/cli"
)

// Root builds the audb command tree (mirrors the teacher's
// cli/cmd/root.go: a bare root command with every subcommand attached
// via AddCommand).
func Root(ctx context.Context, cliCtx cli.Context) *cobra.Command {
	root := &cobra.Command{
		Use:   "audb",
		Short: "Manages versioned, content-addressed media database corpora.",
		Long: `audb loads, publishes, and inspects versioned database corpora stored
in a content-addressed repository, materializing only the media a
requested flavor actually needs.`,
	}

	root.AddCommand(
		newLoadCommand(ctx, cliCtx),
		newPublishCommand(ctx, cliCtx),
		newVersionsCommand(ctx, cliCtx),
		newInfoCommand(ctx, cliCtx),
	)

	return root
}
