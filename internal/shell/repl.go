// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/oops"

	"github.com/holomush/portal/internal/login"
	"github.com/holomush/portal/pkg/errutil"
)

const (
	loggedOutHelp = "Commands: login [email] [password] [--remember], forgot, signup, help, quit"
	loggedInHelp  = "Commands: logout, refresh, whoami, help, quit"
)

// errQuit ends the loop without error.
var errQuit = errors.New("quit")

// Run reads commands from in until EOF, quit or ctx is done, rendering the
// current view to out after every state change.
func (a *App) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	r := &repl{app: a, in: in, scanner: scanner, out: out}

	if err := r.render(); err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		r.prompt()
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return oops.Code("SHELL_READ_FAILED").Wrap(err)
			}
			return nil
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		err := r.dispatch(ctx, fields[0], fields[1:])
		if errors.Is(err, errQuit) {
			r.println("Bye!")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

type repl struct {
	app     *App
	in      io.Reader
	scanner *bufio.Scanner
	out     io.Writer
}

func (r *repl) println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...) //nolint:errcheck // terminal output
}

func (r *repl) prompt() {
	if id, ok := r.app.Identity(); ok {
		_, _ = fmt.Fprintf(r.out, "portal [%s]> ", id.Name) //nolint:errcheck // terminal output
		return
	}
	_, _ = fmt.Fprint(r.out, "portal> ") //nolint:errcheck // terminal output
}

// render writes the login view or the dashboard.
func (r *repl) render() error {
	if _, ok := r.app.Identity(); !ok {
		r.println("Welcome Back")
		r.println("Sign in to your account")
		r.println(loggedOutHelp)
		return nil
	}
	d, err := r.app.Dashboard()
	if err != nil {
		return err
	}
	if err := d.Render(r.out); err != nil {
		return err
	}
	r.println(loggedInHelp)
	return nil
}

func (r *repl) dispatch(ctx context.Context, cmd string, args []string) error {
	_, signedIn := r.app.Identity()

	switch cmd {
	case "quit", "exit":
		return errQuit
	case "help":
		if signedIn {
			r.println(loggedInHelp)
		} else {
			r.println(loggedOutHelp)
		}
		return nil
	}

	if signedIn {
		switch cmd {
		case "logout":
			return r.logout(ctx)
		case "refresh":
			return r.refresh(ctx)
		case "whoami":
			id, _ := r.app.Identity()
			r.println(fmt.Sprintf("%s <%s>", id.Name, id.Email))
			return nil
		}
	} else {
		switch cmd {
		case "login":
			return r.login(ctx, args)
		case "forgot":
			r.println("Forgot password? Continue at " + login.ForgotPasswordPath)
			return nil
		case "signup":
			r.println("Don't have an account? Sign up at " + login.SignUpPath)
			return nil
		}
	}

	r.println(fmt.Sprintf("Unknown command: %s (type 'help' for commands)", cmd))
	return nil
}

func (r *repl) login(ctx context.Context, args []string) error {
	var creds login.Credentials
	var positional []string
	for _, arg := range args {
		switch arg {
		case "--remember", "-r":
			creds.RememberMe = true
		default:
			positional = append(positional, arg)
		}
	}
	if len(positional) > 0 {
		creds.Email = positional[0]
	}
	if len(positional) > 1 {
		creds.Password = positional[1]
	}

	var err error
	if creds.Email == "" {
		if creds.Email, err = r.readLine("Email: ", true); err != nil {
			return err
		}
	}
	if creds.Password == "" {
		if creds.Password, err = r.readSecret("Password: "); err != nil {
			return err
		}
	}

	r.println("Signing in...")
	outcome, err := r.app.Login(ctx, creds)
	if err != nil {
		return err
	}
	if outcome.State != login.Success {
		r.println("Error: " + outcome.Message)
		return nil
	}
	return r.render()
}

func (r *repl) logout(ctx context.Context) error {
	d, err := r.app.Dashboard()
	if err != nil {
		return err
	}
	if err := d.Logout(ctx); err != nil {
		errutil.LogError(r.app.logger, "logout failed", err)
		r.println("Error: " + login.MessageFault)
		return nil
	}
	r.println("Logged out.")
	return r.render()
}

func (r *repl) refresh(ctx context.Context) error {
	ok, err := r.app.Refresh(ctx)
	if err != nil {
		errutil.LogError(r.app.logger, "token refresh failed", err)
		r.println("Error: " + login.MessageFault)
		return nil
	}
	if !ok {
		r.println("Your session has ended. Please sign in again.")
		return r.render()
	}
	r.println("Session refreshed.")
	return nil
}

// readLine prompts and reads one line. Only a trailing CR is stripped unless
// trim is set.
func (r *repl) readLine(prompt string, trim bool) (string, error) {
	_, _ = fmt.Fprint(r.out, prompt) //nolint:errcheck // terminal output
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", oops.Code("SHELL_READ_FAILED").Wrap(err)
		}
		return "", errQuit
	}
	line := strings.TrimSuffix(r.scanner.Text(), "\r")
	if trim {
		line = strings.TrimSpace(line)
	}
	return line, nil
}

// readSecret reads without echo when in is a terminal and falls back to a
// plain line otherwise.
func (r *repl) readSecret(prompt string) (string, error) {
	f, ok := r.in.(*os.File)
	if !ok || !r.app.isTerminal(int(f.Fd())) {
		return r.readLine(prompt, false)
	}
	_, _ = fmt.Fprint(r.out, prompt) //nolint:errcheck // terminal output
	pw, err := r.app.readPassword(int(f.Fd()))
	r.println()
	if err != nil {
		return "", oops.Code("SHELL_READ_FAILED").With("operation", "read password").Wrap(err)
	}
	return string(pw), nil
}
