package main

import (
	"fmt"

	"github.com/jacksonlee411/contact-directory/modules/directory/services"
	"github.com/spf13/cobra"
)

func newCheckCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report duplicate orders, cycles and broken parents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, dir, err := openDirectory(cmd, opts)
			if err != nil {
				return err
			}
			defer dir.stores.Close()

			issues, err := services.CheckIntegrity(ctx, dir.stores.Records)
			if err != nil {
				return err
			}
			for _, is := range issues {
				fmt.Fprintln(cmd.OutOrStdout(), is.String())
			}
			if len(issues) > 0 {
				return fmt.Errorf("check: %d issue(s) found", len(issues))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
