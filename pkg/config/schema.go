package config

import (
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const groupsSchemaURL = "test_groups.schema.json"

// groupsSchema describes the group document. Mode names are not enumerated here; the composer
// owns the set of supported modes and reports unknown ones itself.
const groupsSchema = `{
  "type": "object",
  "required": ["test_groups"],
  "additionalProperties": false,
  "properties": {
    "test_groups": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "regen_factor", "type", "parameters"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "regen_factor": {"type": "integer", "minimum": 1},
          "type": {"type": "string", "minLength": 1},
          "parameters": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["vertex_count", "edges_count"],
              "additionalProperties": false,
              "properties": {
                "vertex_count": {"type": "integer", "minimum": 1},
                "edges_count": {"type": "integer", "minimum": 0}
              }
            }
          }
        }
      }
    },
    "excluded_groups": {
      "type": "array",
      "items": {"type": "string"}
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if schemaErr = c.AddResource(groupsSchemaURL, strings.NewReader(groupsSchema)); schemaErr != nil {
			return
		}
		compiledSchema, schemaErr = c.Compile(groupsSchemaURL)
	})
	return compiledSchema, schemaErr
}

func validateSchema(doc any) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}
	return schema.Validate(doc)
}
