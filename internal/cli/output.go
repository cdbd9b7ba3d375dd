package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// TextRenderer is implemented by results that have a human readable form
type TextRenderer interface {
	RenderText(w io.Writer) error
}

// OutputFormatter writes command results in the configured format.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Write renders data as text, JSON or YAML
func (f *OutputFormatter) Write(data interface{}) error {
	switch f.Format {
	case "json":
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml":
		enc := yaml.NewEncoder(f.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	default:
		if r, ok := data.(TextRenderer); ok {
			return r.RenderText(f.Writer)
		}
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
}
