package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatJSON
	}
}

// coerceToJSONBytes turns a YAML document into JSON so both formats go
// through the same strict decoder. JSON input is returned unchanged.
func coerceToJSONBytes(path string, data []byte) ([]byte, string, error) {
	format := formatOf(path)
	if format == formatJSON {
		return data, format, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return []byte("{}"), format, nil
		}
		return nil, format, fmt.Errorf("yaml unmarshal: %w", err)
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, format, errors.New("invalid config: multiple yaml documents")
		}
		return nil, format, fmt.Errorf("yaml unmarshal: %w", err)
	}

	j, err := json.Marshal(stringKeys(v))
	if err != nil {
		return nil, format, fmt.Errorf("yaml->json marshal: %w", err)
	}
	return j, format, nil
}

// stringKeys rewrites non-string map keys (e.g. `1: x`) so the tree can be
// marshaled as JSON.
func stringKeys(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = stringKeys(v)
		}
		return m
	case map[string]any:
		for k, v := range x {
			x[k] = stringKeys(v)
		}
		return x
	case []any:
		for i := range x {
			x[i] = stringKeys(x[i])
		}
		return x
	default:
		return in
	}
}
