package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jacksonlee411/contact-directory/modules/directory/services"
	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
	"github.com/spf13/cobra"
)

func newTreeCmd(opts *globalOptions) *cobra.Command {
	var q services.TreeQuery

	cmd := &cobra.Command{
		Use:       "tree designations|organization",
		Short:     "Print a hierarchy",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"designations", "organization"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, dir, err := openDirectory(cmd, opts)
			if err != nil {
				return err
			}
			defer dir.stores.Close()

			q.Search = strings.TrimSpace(q.Search)
			var view services.TreeView
			switch args[0] {
			case "designations":
				view, err = dir.designations.Tree(ctx, q)
			case "organization":
				view, err = dir.organization.Tree(ctx, q)
			default:
				return fmt.Errorf("unknown tree %q (expected designations|organization)", args[0])
			}
			if err != nil {
				return err
			}
			printTree(cmd.OutOrStdout(), view.Roots, 0)
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d shown\n", view.Visible, view.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&q.Search, "search", "", "only show branches matching this term")
	cmd.Flags().StringVar(&q.Sort, "sort", "", "order|name|staff|updated")
	return cmd
}

func printTree(w io.Writer, nodes []*hierarchy.Node, depth int) {
	for _, n := range nodes {
		mark := ""
		if n.Highlighted {
			mark = " *"
		}
		kind := ""
		if n.Kind != "" {
			kind = " [" + n.Kind + "]"
		}
		fmt.Fprintf(w, "%s%d. %s%s%s\n", strings.Repeat("  ", depth), n.Order, n.Name, kind, mark)
		printTree(w, n.Children, depth+1)
	}
}
