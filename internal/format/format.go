package format

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DataFormat is a pflag.Value selecting how command output is rendered.
type DataFormat string

const (
	FORMAT_LIST DataFormat = "list"
	FORMAT_JSON DataFormat = "json"
	FORMAT_YAML DataFormat = "yaml"
)

var formats = []DataFormat{FORMAT_LIST, FORMAT_JSON, FORMAT_YAML}

func (df DataFormat) String() string {
	return string(df)
}

func (df *DataFormat) Set(v string) error {
	for _, f := range formats {
		if DataFormat(v) == f {
			*df = f
			return nil
		}
	}
	return fmt.Errorf("must be one of %v", formats)
}

func (df DataFormat) Type() string {
	return "DataFormat"
}

// Lister is implemented by values with a one-line-per-item text form.
type Lister interface {
	Lines() []string
}

// Marshal renders data as outFormat. FORMAT_LIST requires data to
// implement Lister.
func Marshal(data any, outFormat DataFormat) ([]byte, error) {
	switch outFormat {
	case FORMAT_JSON:
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal data into JSON: %w", err)
		}
		return b, nil
	case FORMAT_YAML:
		b, err := yaml.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal data into YAML: %w", err)
		}
		return b, nil
	case FORMAT_LIST:
		lister, ok := data.(Lister)
		if !ok {
			return nil, fmt.Errorf("%T cannot be rendered as a list", data)
		}
		var b []byte
		for _, line := range lister.Lines() {
			b = append(b, line...)
			b = append(b, '\n')
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown data format: %s", outFormat)
	}
}

// Unmarshal decodes JSON or YAML data into v.
func Unmarshal(data []byte, v any, inFormat DataFormat) error {
	switch inFormat {
	case FORMAT_JSON:
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to unmarshal data from JSON: %w", err)
		}
	case FORMAT_YAML:
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to unmarshal data from YAML: %w", err)
		}
	case FORMAT_LIST:
		return fmt.Errorf("this data format cannot be unmarshaled")
	default:
		return fmt.Errorf("unknown data format: %s", inFormat)
	}
	return nil
}

// DataFormatFromFileExt picks JSON or YAML from the file extension,
// falling back to defaultFmt.
func DataFormatFromFileExt(path string, defaultFmt DataFormat) DataFormat {
	switch filepath.Ext(path) {
	case ".json", ".JSON":
		return FORMAT_JSON
	case ".yaml", ".yml", ".YAML", ".YML":
		return FORMAT_YAML
	}
	return defaultFmt
}
