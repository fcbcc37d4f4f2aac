package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const taskSchemaJSON = `{
	"type": "object",
	"required": ["id", "content"],
	"properties": {
		"id": {"type": "string"},
		"content": {"type": "string"},
		"priority": {"type": "string"},
		"completed": {"type": "boolean"},
		"createdAt": {"type": "string"},
		"from_date": {"type": "string"}
	}
}`

const taskListSchemaJSON = `{
	"type": "object",
	"required": ["tasks"],
	"properties": {
		"date": {"type": "string"},
		"migrated": {"type": "boolean"},
		"tasks": {"type": "array", "items": ` + taskSchemaJSON + `}
	}
}`

const statsSchemaJSON = `{
	"type": "object",
	"required": ["totalTasks", "completedTasks", "days"],
	"properties": {
		"totalTasks": {"type": "integer", "minimum": 0},
		"completedTasks": {"type": "integer", "minimum": 0},
		"days": {
			"type": "object",
			"propertyNames": {"pattern": "^[0-9]{2}$"},
			"additionalProperties": {
				"type": "object",
				"required": ["total"],
				"properties": {
					"total": {"type": "integer", "minimum": 0},
					"completed": {"type": "integer", "minimum": 0}
				}
			}
		}
	}
}`

var (
	taskSchema     *jsonschema.Schema
	taskListSchema *jsonschema.Schema
	statsSchema    *jsonschema.Schema
)

func init() {
	compiler := jsonschema.NewCompiler()
	resources := map[string]string{
		"task.json":  taskSchemaJSON,
		"tasks.json": taskListSchemaJSON,
		"stats.json": statsSchemaJSON,
	}
	for name, src := range resources {
		if err := compiler.AddResource(name, bytes.NewReader([]byte(src))); err != nil {
			panic(fmt.Sprintf("api: add schema %s: %v", name, err))
		}
	}
	taskSchema = compiler.MustCompile("task.json")
	taskListSchema = compiler.MustCompile("tasks.json")
	statsSchema = compiler.MustCompile("stats.json")
}

// decodeValidated checks body against schema and then decodes it into v.
func decodeValidated(body []byte, schema *jsonschema.Schema, v any) error {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("unexpected response shape: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
