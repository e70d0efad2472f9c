// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/holomush/portal/internal/config"
	"github.com/holomush/portal/internal/logging"
)

// cli carries the resolved configuration and logger to every subcommand.
type cli struct {
	deps       Deps
	configFile string
	cfg        *config.Config
	logger     *slog.Logger
}

// NewRootCmd creates the root command for the portal CLI.
func NewRootCmd(deps Deps) *cobra.Command {
	c := &cli{deps: deps.withDefaults()}

	cmd := &cobra.Command{
		Use:   "portal",
		Short: "Portal - sign-in and session lifecycle demo",
		Long: `Portal signs users in against a credential verifier, keeps the
session token in durable or per-process storage, and shows a dashboard
for the signed-in user.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	cmd.PersistentFlags().StringVar(&c.configFile, "config", "", "config file path (default $XDG_CONFIG_HOME/portal/config.yaml)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newRunCmd(c))
	cmd.AddCommand(newLoginCmd(c))
	cmd.AddCommand(newLogoutCmd(c))
	cmd.AddCommand(newStatusCmd(c))
	cmd.AddCommand(newRefreshCmd(c))
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newMigrateCmd(c))
	cmd.AddCommand(newSeedCmd(c))

	return cmd
}

// setup loads configuration and builds the logger.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags(), c.configFile)
	if err != nil {
		return err
	}

	logger, err := logging.Setup("portal", cmd.Root().Version, cfg.Log.Format, cfg.Log.Level, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	c.cfg = cfg
	c.logger = logger
	return nil
}
