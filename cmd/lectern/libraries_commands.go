package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lectern/internal/videohost"
)

func newLibrariesCommand(ctx *commandContext) *cobra.Command {
	librariesCmd := &cobra.Command{
		Use:   "libraries",
		Short: "Inspect the cached library catalog",
	}

	librariesCmd.AddCommand(newLibrariesListCommand(ctx))
	librariesCmd.AddCommand(newLibrariesRefreshCommand(ctx))

	return librariesCmd
}

func newLibrariesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known libraries, refreshing the cache if it is empty",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, libraries, err := ctx.openCatalog(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer store.Close()

			printLibraries(cmd, libraries)
			if stamp, ok, err := store.RefreshedAt(cmd.Context()); err == nil && ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Last refreshed %s\n", stamp.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func newLibrariesRefreshCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Re-fetch the library listing from the video host",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, libraries, err := ctx.openCatalog(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer store.Close()

			printLibraries(cmd, libraries)
			fmt.Fprintf(cmd.OutOrStdout(), "Cached %d libraries\n", len(libraries))
			return nil
		},
	}
}

func printLibraries(cmd *cobra.Command, libraries []videohost.Library) {
	rows := make([][]string, 0, len(libraries))
	for _, library := range libraries {
		rows = append(rows, []string{library.Name, library.ID, yesNo(library.APIKey != "")})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Library", "ID", "Scoped Key"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft},
	))
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
