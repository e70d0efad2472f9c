// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package dashboard renders the signed-in view and handles logout.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/samber/oops"

	"github.com/holomush/portal/internal/auth"
)

// Logouter ends the stored session.
type Logouter interface {
	Logout(ctx context.Context) error
}

// Card is one tile of the dashboard grid.
type Card struct {
	Title string
	Body  string
}

// Cards are the placeholder tiles shown under the welcome banner.
var Cards = []Card{
	{Title: "Statistics", Body: "View your account statistics here"},
	{Title: "Recent Activity", Body: "Your recent activities will appear here"},
	{Title: "Quick Settings", Body: "Manage your account settings"},
}

// Dashboard shows the identity of the signed-in user.
type Dashboard struct {
	identity auth.Identity
	logouter Logouter
	onLogout func()
}

// New creates a Dashboard. onLogout may be nil.
func New(identity auth.Identity, logouter Logouter, onLogout func()) (*Dashboard, error) {
	if logouter == nil {
		return nil, oops.Errorf("logouter is required")
	}
	return &Dashboard{identity: identity, logouter: logouter, onLogout: onLogout}, nil
}

// Identity returns the identity shown by the dashboard.
func (d *Dashboard) Identity() auth.Identity {
	return d.identity
}

// Render writes the dashboard to w.
func (d *Dashboard) Render(w io.Writer) error {
	var b strings.Builder
	b.WriteString("Dashboard\n")
	fmt.Fprintf(&b, "Welcome, %s\n\n", d.identity.Name)
	b.WriteString("Welcome to Your Dashboard\n")
	fmt.Fprintf(&b, "Logged in as: %s\n", d.identity.Email)
	b.WriteString("You have successfully authenticated!\n")
	for _, c := range Cards {
		fmt.Fprintf(&b, "\n[%s]\n%s\n", c.Title, c.Body)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return oops.Code("DASHBOARD_RENDER_FAILED").Wrap(err)
	}
	return nil
}

// Logout clears the session and then calls onLogout. onLogout is not called
// when clearing fails.
func (d *Dashboard) Logout(ctx context.Context) error {
	if err := d.logouter.Logout(ctx); err != nil {
		return oops.With("email", d.identity.Email).Wrap(err)
	}
	if d.onLogout != nil {
		d.onLogout()
	}
	return nil
}
