// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

package world

import (
	_ "embed"
	"encoding/json"
	"os"
	"sync"

	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed seed_schema.json
var seedSchemaJSON []byte

// Compiled seed schema - computed once since the embedded schema is immutable.
var (
	seedSchemaOnce sync.Once
	seedSchema     *jschema.Schema
	seedSchemaErr  error
)

// RoomDefinition is the static description of a room, loaded from seed data
// or a room repository. A nil exit target is an unlinked direction.
type RoomDefinition struct {
	ID          string             `yaml:"id" json:"id"`
	Name        string             `yaml:"name" json:"name"`
	Description string             `yaml:"description,omitempty" json:"description,omitempty"`
	Plane       string             `yaml:"plane,omitempty" json:"plane,omitempty"`
	Zone        string             `yaml:"zone,omitempty" json:"zone,omitempty"`
	SubZone     string             `yaml:"subzone,omitempty" json:"subzone,omitempty"`
	Environment string             `yaml:"environment,omitempty" json:"environment,omitempty"`
	Exits       map[string]*string `yaml:"exits,omitempty" json:"exits,omitempty"`
	Containers  []Container        `yaml:"containers,omitempty" json:"containers,omitempty"`
}

// Validate checks that the definition has required fields.
func (d *RoomDefinition) Validate() error {
	if err := ValidateID("id", d.ID); err != nil {
		return err
	}
	if d.Name == "" {
		return &ValidationError{Field: "name", Message: "cannot be empty"}
	}
	for direction := range d.Exits {
		if direction == "" {
			return &ValidationError{Field: "exits", Message: "direction cannot be empty"}
		}
	}
	return nil
}

// seedFile is the on-disk layout of a world seed.
type seedFile struct {
	Rooms []RoomDefinition `yaml:"rooms"`
}

// LoadSeedFile reads, schema-validates, and parses a YAML world seed.
func LoadSeedFile(path string) ([]RoomDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Code("SEED_READ_FAILED").With("path", path).Wrap(err)
	}
	return ParseSeed(data)
}

// ParseSeed schema-validates and parses YAML seed data.
func ParseSeed(data []byte) ([]RoomDefinition, error) {
	if err := ValidateSeed(data); err != nil {
		return nil, err
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, oops.Code("SEED_PARSE_FAILED").Wrap(err)
	}
	for i := range f.Rooms {
		if err := f.Rooms[i].Validate(); err != nil {
			return nil, oops.Code("SEED_INVALID").With("room_id", f.Rooms[i].ID).Wrap(err)
		}
	}
	return f.Rooms, nil
}

// ValidateSeed validates YAML seed data against the embedded JSON Schema.
func ValidateSeed(data []byte) error {
	if len(data) == 0 {
		return oops.Code("SEED_INVALID").Errorf("seed data is empty")
	}

	var yamlData any
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		return oops.Code("SEED_PARSE_FAILED").Wrap(err)
	}

	sch, err := compiledSeedSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(convertToJSONTypes(yamlData)); err != nil {
		return oops.Code("SEED_INVALID").Wrap(err)
	}
	return nil
}

func compiledSeedSchema() (*jschema.Schema, error) {
	seedSchemaOnce.Do(func() {
		var schemaData any
		if err := json.Unmarshal(seedSchemaJSON, &schemaData); err != nil {
			seedSchemaErr = oops.Code("SEED_SCHEMA_INVALID").Wrap(err)
			return
		}
		c := jschema.NewCompiler()
		if err := c.AddResource("seed_schema.json", schemaData); err != nil {
			seedSchemaErr = oops.Code("SEED_SCHEMA_INVALID").Wrap(err)
			return
		}
		seedSchema, seedSchemaErr = c.Compile("seed_schema.json")
		if seedSchemaErr != nil {
			seedSchemaErr = oops.Code("SEED_SCHEMA_INVALID").Wrap(seedSchemaErr)
		}
	})
	return seedSchema, seedSchemaErr
}

// convertToJSONTypes converts YAML-parsed data to JSON-compatible types for
// schema validation. Nested structures are handled recursively.
func convertToJSONTypes(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, item := range val {
			result[k] = convertToJSONTypes(item)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = convertToJSONTypes(item)
		}
		return result
	case int:
		return float64(val)
	case int64:
		return float64(val)
	default:
		return val
	}
}
