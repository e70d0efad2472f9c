// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/portal/internal/validation"
)

func newValidateCmd() *cobra.Command {
	var sanitize bool

	cmd := &cobra.Command{
		Use:   "validate <kind> <value>",
		Short: "Check a value with one of the input validators",
		Long: fmt.Sprintf(`Check a value with one of the input validators and exit non-zero
when it is rejected. Kinds: %s.

With --sanitize the value is HTML-escaped and printed instead.`, strings.Join(validation.Kinds, ", ")),
		Args: func(cmd *cobra.Command, args []string) error {
			if sanitize {
				return cobra.ExactArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if sanitize {
				fmt.Fprintln(cmd.OutOrStdout(), validation.Sanitize(args[0]))
				return nil
			}

			kind, value := args[0], args[1]
			ok, err := validation.Check(kind, value)
			if err != nil {
				return err
			}
			if !ok {
				return oops.Code("VALIDATION_FAILED").
					With("kind", kind).
					Errorf("value is not a valid %s", kind)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	}

	cmd.Flags().BoolVar(&sanitize, "sanitize", false, "print the HTML-escaped value instead of validating")

	return cmd
}
