// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package cli // import "newsfeed.app/internal/cli"

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"newsfeed.app/internal/client"
	"newsfeed.app/internal/config"
)

var healthCmd = cobra.Command{
	Use:   "healthcheck auto|endpoint",
	Short: `Perform a health check on the given endpoint`,

	Long: `Perform a health check on the given endpoint.

The value "auto" builds the endpoint from LISTEN_ADDR.
`,

	Example: `
$ newsfeed healthcheck http://127.0.0.1:8080
`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return doHealthCheck(cmd.Context(), args[0])
	},
}

func doHealthCheck(ctx context.Context, endpoint string) error {
	if endpoint == "auto" {
		listenAddr := config.Opts.ListenAddr()
		if strings.HasPrefix(listenAddr, "/") {
			return fmt.Errorf("cli: unable guess endpoint of unix socket %q",
				listenAddr)
		}
		endpoint = "http://" + listenAddr
	}

	slog.Debug("Executing health check request",
		slog.String("endpoint", endpoint))

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.NewClient(endpoint).Healthcheck(ctx); err != nil {
		return fmt.Errorf("health check failure: %w", err)
	}
	slog.Debug(`Health check is passing`)
	return nil
}
