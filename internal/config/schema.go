package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/projects.schema.json
var projectsSchema []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(projectsSchema))
		if err != nil {
			schemaErr = fmt.Errorf("parse embedded schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("projects.schema.json", doc); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, schemaErr = c.Compile("projects.schema.json")
	})
	return schema, schemaErr
}

// ValidateProjects checks a raw projects.toml document against the embedded
// schema, catching typos like misspelled keys or wrong value types before
// they turn into silent misconfiguration.
func ValidateProjects(tomlData []byte) error {
	var decoded map[string]any
	if err := toml.Unmarshal(tomlData, &decoded); err != nil {
		return fmt.Errorf("parse projects file: %w", err)
	}

	// Round-trip through JSON so the instance uses JSON value kinds, which
	// is what the validator expects.
	jsonData, err := json.Marshal(decoded)
	if err != nil {
		return fmt.Errorf("encode projects for validation: %w", err)
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("decode projects for validation: %w", err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(instance); err != nil {
		return fmt.Errorf("invalid project configuration: %w", err)
	}
	return nil
}
