// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"sync/atomic"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/portal/internal/shell"
	"github.com/holomush/portal/pkg/errutil"
)

func newRunCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the interactive shell",
		Long: `Restore the stored session, then read commands from standard input.
Signed out, the shell offers login, forgot and signup; signed in, it shows
the dashboard and offers logout, refresh and whoami.

With --metrics-addr the shell also serves /metrics and health probes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, c)
		},
	}
}

func runShell(cmd *cobra.Command, c *cli) error {
	ctx := cmd.Context()

	var ready atomic.Bool
	var recorder shell.Recorder

	if addr := c.cfg.Metrics.Addr; addr != "" {
		server := c.deps.ObservabilityServerFactory(addr, ready.Load, c.logger)
		errCh, err := server.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").With("addr", addr).Wrap(err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := server.Stop(stopCtx); err != nil {
				errutil.LogError(c.logger, "observability server shutdown failed", err)
			}
		}()
		go func() {
			for err := range errCh {
				c.logger.Error("observability server failed", "error", err)
			}
		}()
		recorder = server.Metrics()
	}

	p, err := c.open(ctx, recorder)
	if err != nil {
		return err
	}
	defer p.Close()

	if _, err := p.app.Restore(ctx); err != nil {
		return err
	}
	ready.Store(true)

	return p.app.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}
