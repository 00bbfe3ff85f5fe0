package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jacksonlee411/contact-directory/internal/server"
	"github.com/jacksonlee411/contact-directory/modules/directory/services"
	"github.com/jacksonlee411/contact-directory/pkg/configuration"
	"github.com/jacksonlee411/contact-directory/pkg/logging"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	Store      string
	SQLitePath string
	EnvFiles   []string
}

func newRootCmd() *cobra.Command {
	var opts globalOptions

	cmd := &cobra.Command{
		Use:           "dirctl",
		Short:         "Contact directory maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "store driver override (memory|postgres|sqlite)")
	cmd.PersistentFlags().StringVar(&opts.SQLitePath, "sqlite-path", "", "sqlite database file override")
	cmd.PersistentFlags().StringSliceVar(&opts.EnvFiles, "env-file", configuration.DefaultEnvFiles, "env files to load")

	cmd.AddCommand(newMigrateCmd(&opts))
	cmd.AddCommand(newSeedCmd(&opts))
	cmd.AddCommand(newTreeCmd(&opts))
	cmd.AddCommand(newCheckCmd(&opts))
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies the command line overrides.
func loadConfig(opts *globalOptions) (*configuration.Configuration, error) {
	cfg, err := configuration.Load(opts.EnvFiles)
	if err != nil {
		return nil, err
	}
	if s := strings.ToLower(strings.TrimSpace(opts.Store)); s != "" {
		cfg.StoreDriver = s
	}
	if p := strings.TrimSpace(opts.SQLitePath); p != "" {
		cfg.SQLitePath = p
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type directory struct {
	stores       server.Stores
	designations services.DesignationService
	organization services.OrganizationService
}

// openDirectory opens the configured store with a logger on the context, so
// service writes are logged the same way the server logs them.
func openDirectory(cmd *cobra.Command, opts *globalOptions) (context.Context, *directory, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	ctx := logging.WithLogger(cmd.Context(), logger.WithField("command", cmd.Name()))

	stores, err := server.OpenStores(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return ctx, &directory{
		stores:       stores,
		designations: services.NewDesignationService(stores.Records, stores.Contacts, nil),
		organization: services.NewOrganizationService(stores.Records, nil),
	}, nil
}
