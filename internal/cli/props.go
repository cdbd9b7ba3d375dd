package cli

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shepherrrd/hybrid/internal/models"
	"github.com/shepherrrd/hybrid/internal/sample"
)

type PropertyInfo struct {
	Model           string `json:"model" yaml:"model"`
	Name            string `json:"name" yaml:"name"`
	Registered      bool   `json:"registered" yaml:"registered"`
	SupportsThrough bool   `json:"supports_through" yaml:"supports_through"`
	Doc             string `json:"doc,omitempty" yaml:"doc,omitempty"`
}

type PropsResult struct {
	Properties []PropertyInfo `json:"properties" yaml:"properties"`
}

func (r PropsResult) RenderText(w io.Writer) error {
	for _, p := range r.Properties {
		through := ""
		if p.SupportsThrough {
			through = " (through)"
		}
		if _, err := fmt.Fprintf(w, "%s.%s%s\n", p.Model, p.Name, through); err != nil {
			return err
		}
		if p.Doc == "" {
			continue
		}
		for _, line := range strings.Split(p.Doc, "\n") {
			if _, err := fmt.Fprintf(w, "    %s\n", line); err != nil {
				return err
			}
		}
	}
	return nil
}

// NewPropsCommand creates the props command.
func NewPropsCommand(rootOpts *RootOptions) *cobra.Command {
	var withDoc bool

	cmd := &cobra.Command{
		Use:          "props",
		Short:        "List the hybrid properties of the sample models",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			result := PropsResult{}
			for _, t := range []reflect.Type{reflect.TypeFor[sample.Person](), reflect.TypeFor[sample.Profile]()} {
				for _, p := range models.Properties(t) {
					info := PropertyInfo{
						Model:           t.Name(),
						Name:            p.Name(),
						Registered:      p.Registered(),
						SupportsThrough: p.SupportsThrough(),
					}
					if withDoc {
						info.Doc = p.Doc()
					}
					result.Properties = append(result.Properties, info)
				}
			}
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return formatter.Write(result)
		},
	}

	cmd.Flags().BoolVar(&withDoc, "doc", false, "include documentation")
	return cmd
}
