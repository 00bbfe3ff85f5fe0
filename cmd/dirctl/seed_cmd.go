package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jacksonlee411/contact-directory/modules/directory/services"
	"github.com/spf13/cobra"
)

func newSeedCmd(opts *globalOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed --file <seed.yaml>",
		Short: "Load designations and the organization from a YAML seed file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(file) == "" {
				return errors.New("--file is required")
			}
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			seed, err := services.ParseSeed(f)
			if err != nil {
				return err
			}

			ctx, dir, err := openDirectory(cmd, opts)
			if err != nil {
				return err
			}
			defer dir.stores.Close()

			res, err := services.NewSeeder(dir.designations, dir.organization).Seed(ctx, seed)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "designations=%d org_nodes=%d skipped=%d\n", res.Designations, res.OrgNodes, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "seed file path")
	return cmd
}
