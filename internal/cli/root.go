// Package cli implements the hybrid command.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/shepherrrd/hybrid/internal/config"
	"github.com/shepherrrd/hybrid/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "text" | "json" | "yaml"
	Verbose    bool

	config *config.Config
}

var ValidFormats = []string{"text", "json", "yaml"}

// Config returns the configuration loaded before the command ran
func (o *RootOptions) Config() *config.Config {
	return o.config
}

// NewRootCommand creates the root command for the hybrid CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "hybrid",
		Short: "Hybrid model properties for gorm",
		Long: `Inspect and try hybrid properties: values computed on a loaded record that
also compile to SQL for annotating and filtering a query.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if opts.Verbose {
				cfg.Log.Level = "DEBUG"
			}
			logging.Init(logging.Config{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				Output: cmd.ErrOrStderr(),
			})
			opts.config = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewDemoCommand(opts))
	cmd.AddCommand(NewSQLCommand(opts))
	cmd.AddCommand(NewPropsCommand(opts))

	return cmd
}
