// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// prompter reads answers from the command's input.
type prompter struct {
	cmd    *cobra.Command
	deps   Deps
	reader *bufio.Reader
}

func newPrompter(cmd *cobra.Command, deps Deps) *prompter {
	return &prompter{cmd: cmd, deps: deps, reader: bufio.NewReader(cmd.InOrStdin())}
}

// line prints prompt and returns the next trimmed line.
func (p *prompter) line(prompt string) (string, error) {
	_, _ = fmt.Fprint(p.cmd.OutOrStdout(), prompt) //nolint:errcheck // terminal output
	text, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && text != "") {
		return "", oops.Code("PROMPT_READ_FAILED").With("prompt", strings.TrimSpace(prompt)).Wrap(err)
	}
	return strings.TrimSpace(text), nil
}

// secret reads without echo from a terminal and falls back to line otherwise.
func (p *prompter) secret(prompt string) (string, error) {
	f, ok := p.cmd.InOrStdin().(*os.File)
	if !ok || !p.deps.IsTerminal(int(f.Fd())) {
		return p.line(prompt)
	}
	_, _ = fmt.Fprint(p.cmd.OutOrStdout(), prompt) //nolint:errcheck // terminal output
	b, err := p.deps.ReadPassword(int(f.Fd()))
	_, _ = fmt.Fprintln(p.cmd.OutOrStdout()) //nolint:errcheck // terminal output
	if err != nil {
		return "", oops.Code("PROMPT_READ_FAILED").With("prompt", strings.TrimSpace(prompt)).Wrap(err)
	}
	return string(b), nil
}
