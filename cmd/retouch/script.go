package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/retouch/op"
)

// loadScript reads an operation list in the wire shape from a YAML or JSON
// file. Entries without an id get a random one. An empty path yields no
// operations.
func loadScript(path string) ([]op.Operation, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read operations: %w", err)
	}
	return parseScript(data)
}

func parseScript(data []byte) ([]op.Operation, error) {
	// YAML is a superset of JSON, so both parse into the same generic form.
	var entries []map[string]any
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse operations: %w", err)
	}
	for _, e := range entries {
		if id, _ := e["id"].(string); id == "" {
			e["id"] = uuid.NewString()
		}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("parse operations: %w", err)
	}
	ops, err := op.DecodeList(raw)
	if err != nil {
		return nil, fmt.Errorf("parse operations: %w", err)
	}
	return ops, nil
}
