// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package cli // import "newsfeed.app/internal/cli"

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"newsfeed.app/internal/cli/logger"
	"newsfeed.app/internal/config"
	"newsfeed.app/internal/logging"
	"newsfeed.app/internal/newsfeed"
	"newsfeed.app/internal/storage"
	"newsfeed.app/internal/version"
)

var (
	flagConfigFile string
	flagConfigYAML string
	flagDebugMode  bool

	logCloser io.Closer
)

var Cmd = cobra.Command{
	Use:     "newsfeed [feed URL...]",
	Short:   "Newsfeed fetches news feeds and prints short excerpts of them.",
	Version: version.Version,

	PersistentPreRunE: persistentPreRunE,

	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			config.Opts.SetFeedURLs(args...)
		}
		return printNewsFeed(cmd.Context(), cmd.OutOrStdout(),
			newsfeed.New(config.Opts.FeedURLs()...))
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

var configDumpCmd = cobra.Command{
	Use:   "config-dump",
	Short: "Print parsed configuration values",
	Args:  cobra.ExactArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), config.Opts)
	},
}

var migrateCmd = cobra.Command{
	Use:   "migrate",
	Short: "Run SQL migrations",
	Args:  cobra.ExactArgs(0),

	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorage(cmd.Context(),
			func(ctx context.Context, store *storage.Storage) error {
				return store.Migrate(ctx)
			})
	},
}

func init() {
	Cmd.PersistentFlags().StringVarP(&flagConfigFile, "config-file", "c", "",
		"Path to .env configuration file")
	Cmd.PersistentFlags().StringVarP(&flagConfigYAML, "config-yaml", "", "",
		"Path to YAML configuration file")
	Cmd.PersistentFlags().BoolVarP(&flagDebugMode, "debug", "d", false,
		"Show debug logs")

	Cmd.AddCommand(&cleanupCmd)
	Cmd.AddCommand(&configDumpCmd)
	Cmd.AddCommand(&daemonCmd)
	Cmd.AddCommand(&excerptCmd)
	Cmd.AddCommand(&healthCmd)
	Cmd.AddCommand(&infoCmd)
	Cmd.AddCommand(&migrateCmd)
	Cmd.AddCommand(&refreshCmd)
}

func persistentPreRunE(cmd *cobra.Command, args []string) error {
	// Don't show usage on app errors.
	// https://github.com/spf13/cobra/issues/340#issuecomment-378726225
	cmd.SilenceUsage = true

	if err := config.LoadYAML(flagConfigYAML, flagConfigFile); err != nil {
		return err
	} else if flagDebugMode {
		config.Opts.SetLogLevel("debug")
	}

	closer, err := logger.InitializeDefaultLogger()
	if err != nil {
		return err
	}
	logCloser = closer
	return nil
}

func withStorage(ctx context.Context,
	fn func(ctx context.Context, store *storage.Storage) error,
) error {
	store, err := makeStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close(ctx)
	return fn(ctx, store)
}

func makeStorage(ctx context.Context) (*storage.Storage, error) {
	if config.Opts.IsDefaultDatabaseURL() {
		logging.FromContext(ctx).Info("The default value for DATABASE_URL is used")
	}

	return storage.Connect(ctx, config.Opts.DatabaseURL(),
		storage.WithConns(config.Opts.DatabaseMaxConns(),
			config.Opts.DatabaseMinConns()),
		storage.WithLifetime(config.Opts.DatabaseConnectionLifetime()))
}

func Execute() {
	if err := Cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
