// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	_ "embed"
	"os"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

//go:embed demo_users.yaml
var demoUsersYAML []byte

// UsersFile is the document format of a users file.
type UsersFile struct {
	Users []UserEntry `yaml:"users" json:"users" jsonschema:"minItems=1,description=Accounts known to the verifier"`
}

// UserEntry is one account in a users file. Password is plaintext; the
// postgres verifier stores only its hash after seeding.
type UserEntry struct {
	Email    string `yaml:"email" json:"email" jsonschema:"minLength=3,description=Login email matched exactly"`
	Password string `yaml:"password" json:"password" jsonschema:"minLength=1"`
	Name     string `yaml:"name,omitempty" json:"name,omitempty" jsonschema:"description=Display name"`
	ID       string `yaml:"id,omitempty" json:"id,omitempty" jsonschema:"description=Stable user id; generated when seeding if empty"`
}

// Identity returns the public identity of the entry.
func (e UserEntry) Identity() Identity {
	name := e.Name
	if name == "" {
		name = NameFromEmail(e.Email)
	}
	return Identity{Email: e.Email, Name: name, ID: e.ID}
}

// DemoUsers returns the built-in demo accounts.
func DemoUsers() ([]UserEntry, error) {
	return ParseUsers(demoUsersYAML)
}

// LoadUsersFile reads and parses the users file at path.
func LoadUsersFile(path string) ([]UserEntry, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, oops.Code("AUTH_USERS_FILE_READ_FAILED").With("path", path).Wrap(err)
	}
	users, err := ParseUsers(data)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	return users, nil
}

// ParseUsers validates data against the users file schema and decodes it.
// Duplicate emails are rejected.
func ParseUsers(data []byte) ([]UserEntry, error) {
	if err := ValidateUsersSchema(data); err != nil {
		return nil, oops.Code("AUTH_USERS_FILE_INVALID").Wrap(err)
	}

	var doc UsersFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, oops.Code("AUTH_USERS_FILE_INVALID").Wrap(err)
	}

	seen := make(map[string]struct{}, len(doc.Users))
	for _, u := range doc.Users {
		if _, dup := seen[u.Email]; dup {
			return nil, oops.Code("AUTH_USERS_FILE_INVALID").
				With("email", u.Email).
				Errorf("duplicate email in users file")
		}
		seen[u.Email] = struct{}{}
	}
	return doc.Users, nil
}
