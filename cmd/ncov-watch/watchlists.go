package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jts/ncov-watch/internal/fileset"
	"github.com/jts/ncov-watch/internal/watchlist"
)

func (a *app) newWatchlistsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlists",
		Short: "List preinstalled watchlists",
		Example: `  ncov-watch watchlists               # list preinstalled names
  ncov-watch watchlists show b.1.1.7  # print the watched mutations`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range watchlist.Preinstalled() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	cmd.AddCommand(a.newWatchlistsShowCmd())
	return cmd
}

func (a *app) newWatchlistsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name|path>",
		Short: "Print the mutations of a watchlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wl, err := watchlist.Resolve(cmd.Context(), args[0], fileset.NewOpener(a.s3Config()))
			if err != nil {
				return err
			}

			w := bufio.NewWriter(cmd.OutOrStdout())
			w.WriteString("name\tcontig\tposition\tref\talt\ttype\n")
			for _, v := range wl.Entries() {
				w.WriteString(strings.Join([]string{
					v.Name,
					v.Chrom,
					strconv.FormatInt(v.Pos, 10),
					v.Ref,
					v.Alt,
					v.Type(),
				}, "\t"))
				w.WriteByte('\n')
			}
			return w.Flush()
		},
	}
}
