package config

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	sigsyaml "sigs.k8s.io/yaml"
)

// configSchema validates the global config file. additionalProperties is
// false everywhere so typos in keys surface at load time instead of being
// silently ignored.
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "workDir": {"type": "string", "minLength": 1},
    "assetsDir": {"type": "string", "minLength": 1},
    "jobs": {"type": "integer", "minimum": 1},
    "zookeeperConn": {"type": "string", "pattern": "^zk://"},
    "archiveStaging": {"type": "boolean"},
    "verifyPackages": {"type": "boolean"},
    "signingKey": {"type": "string"},
    "package": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "description": {"type": "string"},
        "url": {"type": "string"},
        "license": {"type": "string"},
        "maintainer": {"type": "string"}
      }
    },
    "tools": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "git": {"type": "string", "minLength": 1},
        "fpm": {"type": "string", "minLength": 1}
      }
    },
    "logging": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "level": {"type": "string", "enum": ["debug", "info", "warn", "error"]}
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("config.schema.json", configSchema)

// ValidateConfigYAML checks a YAML config document against the schema.
func ValidateConfigYAML(data []byte) error {
	jsonData, err := sigsyaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("failed to convert config to JSON: %w", err)
	}

	var doc any
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	if doc == nil {
		// An empty file just means "all defaults".
		return nil
	}

	if err := compiledSchema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
