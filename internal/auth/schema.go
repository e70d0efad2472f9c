// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// UsersSchemaID is the $id of the users file schema.
const UsersSchemaID = "https://holomush.dev/schemas/users.schema.json"

var (
	usersSchemaOnce sync.Once
	usersSchema     *jschema.Schema
	usersSchemaErr  error
)

// GenerateUsersSchema generates a JSON Schema from the UsersFile struct.
func GenerateUsersSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := r.Reflect(&UsersFile{})
	schema.ID = jsonschema.ID(UsersSchemaID)
	schema.Title = "Portal Users File"
	schema.Description = "Schema for users files consumed by the memory verifier and portal seed"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("AUTH_SCHEMA_FAILED").With("operation", "marshal schema").Wrap(err)
	}
	return data, nil
}

// ValidateUsersSchema validates YAML data against the users file schema.
func ValidateUsersSchema(data []byte) error {
	if len(data) == 0 {
		return oops.Errorf("users file is empty")
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return oops.With("operation", "parse yaml").Wrap(err)
	}

	sch, err := compiledUsersSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(toJSONTypes(doc)); err != nil {
		return oops.With("operation", "validate schema").Wrap(err)
	}
	return nil
}

func compiledUsersSchema() (*jschema.Schema, error) {
	usersSchemaOnce.Do(func() {
		raw, err := GenerateUsersSchema()
		if err != nil {
			usersSchemaErr = err
			return
		}
		var schemaDoc any
		if err := json.Unmarshal(raw, &schemaDoc); err != nil {
			usersSchemaErr = oops.Code("AUTH_SCHEMA_FAILED").With("operation", "parse schema").Wrap(err)
			return
		}
		c := jschema.NewCompiler()
		if err := c.AddResource("users.schema.json", schemaDoc); err != nil {
			usersSchemaErr = oops.Code("AUTH_SCHEMA_FAILED").With("operation", "add schema resource").Wrap(err)
			return
		}
		usersSchema, usersSchemaErr = c.Compile("users.schema.json")
		if usersSchemaErr != nil {
			usersSchemaErr = oops.Code("AUTH_SCHEMA_FAILED").With("operation", "compile schema").Wrap(usersSchemaErr)
		}
	})
	return usersSchema, usersSchemaErr
}

// toJSONTypes converts yaml.v3 output into the types the validator accepts.
func toJSONTypes(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			out[k] = toJSONTypes(v)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, v := range val {
			out[i] = toJSONTypes(v)
		}
		return out
	case string, int, int64, float64, bool, nil:
		return val
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return val
		}
		var out any
		if err := json.Unmarshal(b, &out); err != nil {
			return val
		}
		return out
	}
}
