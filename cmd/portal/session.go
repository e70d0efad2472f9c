// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"encoding/json"
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/portal/internal/login"
	"github.com/holomush/portal/internal/shell"
)

// loginConfig holds configuration for the login command.
type loginConfig struct {
	password string
	remember bool
}

func newLoginCmd(c *cli) *cobra.Command {
	cfg := &loginConfig{}

	cmd := &cobra.Command{
		Use:   "login [email]",
		Short: "Sign in and store the session",
		Long: `Sign in with an email and password. Missing values are prompted for;
the password is read without echo on a terminal. With --remember the
session is kept in durable storage and survives this process.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, args, c, cfg)
		},
	}

	cmd.Flags().StringVarP(&cfg.password, "password", "p", "", "password (prompted when omitted)")
	cmd.Flags().BoolVarP(&cfg.remember, "remember", "r", false, "keep the session in durable storage")

	return cmd
}

func runLogin(cmd *cobra.Command, args []string, c *cli, cfg *loginConfig) error {
	ctx := cmd.Context()

	p, err := c.open(ctx, nil)
	if err != nil {
		return err
	}
	defer p.Close()

	creds := login.Credentials{Password: cfg.password, RememberMe: cfg.remember}
	ask := newPrompter(cmd, c.deps)
	if len(args) > 0 {
		creds.Email = args[0]
	} else if creds.Email, err = ask.line("Email: "); err != nil {
		return err
	}
	if creds.Password == "" {
		if creds.Password, err = ask.secret("Password: "); err != nil {
			return err
		}
	}

	outcome, err := p.app.Login(ctx, creds)
	if err != nil {
		return err
	}
	if outcome.State != login.Success {
		return oops.Code("LOGIN_FAILED").Errorf("%s", outcome.Message)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Signed in as %s <%s>\n", outcome.Identity.Name, outcome.Identity.Email)
	if !creds.RememberMe {
		fmt.Fprintln(out, "This session ends with the process; pass --remember to keep it.")
	}
	return nil
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			p, err := c.open(ctx, nil)
			if err != nil {
				return err
			}
			defer p.Close()

			if _, err := p.app.Restore(ctx); err != nil {
				return err
			}
			if _, ok := p.app.Identity(); !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
				return nil
			}

			d, err := p.app.Dashboard()
			if err != nil {
				return err
			}
			if err := d.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

// StatusReport describes the stored session.
type StatusReport struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	Storage       string `json:"storage,omitempty"`
	Restore       string `json:"restore"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
}

func newStatusCmd(c *cli) *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Long: `Restore the stored session and report who is signed in. A stored
session that is split across storage areas or fails token validation
is cleared.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, c, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, c *cli, cfg *statusConfig) error {
	ctx := cmd.Context()

	p, err := c.open(ctx, nil)
	if err != nil {
		return err
	}
	defer p.Close()

	// Active errors on an inconsistent store; Restore reports that case.
	active, _ := p.store.Active(ctx) //nolint:errcheck // handled by Restore

	result, err := p.app.Restore(ctx)
	if err != nil {
		return err
	}

	report := StatusReport{Restore: result}
	if identity, ok := p.app.Identity(); ok {
		report.Authenticated = true
		report.Email = identity.Email
		report.Name = identity.Name
		if active != nil {
			report.Storage = active.Kind.String()
		}
	}

	if cfg.jsonOutput {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return oops.Code("STATUS_FORMAT_FAILED").Wrap(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), formatStatus(report))
	return nil
}

func formatStatus(r StatusReport) string {
	switch {
	case r.Authenticated:
		return fmt.Sprintf("Signed in as %s <%s> (%s session)", r.Name, r.Email, r.Storage)
	case r.Restore == shell.RestoreInvalid:
		return "Not signed in. The stored session had expired and was cleared."
	case r.Restore == shell.RestoreInconsistent:
		return "Not signed in. The stored session was incomplete and was cleared."
	default:
		return "Not signed in."
	}
}

func newRefreshCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Replace the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			p, err := c.open(ctx, nil)
			if err != nil {
				return err
			}
			defer p.Close()

			if _, err := p.app.Restore(ctx); err != nil {
				return err
			}
			if _, ok := p.app.Identity(); !ok {
				return oops.Code("SHELL_NOT_SIGNED_IN").Errorf("not signed in")
			}

			ok, err := p.app.Refresh(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return oops.Code("SESSION_ENDED").Errorf("your session has ended, please sign in again")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session refreshed.")
			return nil
		},
	}
}
