package announce

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// storeSchema describes the canonical store shape: integer device keys
// mapping to integer announcement keys mapping to flat string records.
// It catches structurally corrupt files that still happen to be JSON.
const storeSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"patternProperties": {
		"^-?[0-9]+$": {
			"type": "object",
			"patternProperties": {
				"^-?[0-9]+$": {
					"type": "object",
					"properties": {
						"Name": {"type": "string"},
						"Announcement": {"type": "string"},
						"Refresh": {"type": "string"},
						"nextRefresh": {"type": "string"}
					},
					"required": ["Name", "Announcement", "Refresh"]
				}
			},
			"additionalProperties": false
		}
	},
	"additionalProperties": false
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func compiled() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var doc any
		if err := json.Unmarshal([]byte(storeSchema), &doc); err != nil {
			compileErr = fmt.Errorf("failed to unmarshal store schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource("store.json", doc); err != nil {
			compileErr = fmt.Errorf("failed to add store schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("store.json")
	})
	return compiledSchema, compileErr
}

// checkStoreShape validates raw store bytes against the canonical
// schema. A non-JSON payload is reported as a plain unmarshal error so
// the caller can try the legacy parser.
func checkStoreShape(data []byte) error {
	sch, err := compiled()
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("store shape invalid: %w", err)
	}
	return nil
}
